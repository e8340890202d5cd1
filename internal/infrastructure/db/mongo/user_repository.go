package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cirestech/usermgmt/internal/core/domain"
)

const collectionUsers = "users"

// Index names; duplicate-key errors are attributed by name.
const (
	indexUsername = "uniq_username"
	indexEmail    = "uniq_email"
)

// UserRepository implements ports.UserRepository on MongoDB. Uniqueness is
// enforced by unique indexes and every mutation is a single-document update.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	FirstName    string             `bson:"first_name,omitempty"`
	LastName     string             `bson:"last_name,omitempty"`
	BirthDate    *time.Time         `bson:"birth_date,omitempty"`
	City         string             `bson:"city,omitempty"`
	Country      string             `bson:"country,omitempty"`
	Avatar       string             `bson:"avatar,omitempty"`
	Company      string             `bson:"company,omitempty"`
	JobPosition  string             `bson:"job_position,omitempty"`
	Mobile       string             `bson:"mobile,omitempty"`
	Role         string             `bson:"role"`
	Enabled      bool               `bson:"enabled"`
	CreatedAt    time.Time          `bson:"created_at"`
	LastLogin    *time.Time         `bson:"last_login,omitempty"`
}

// sortColumns maps API sort names to document fields.
var sortColumns = map[domain.SortField]string{
	domain.SortByID:        "_id",
	domain.SortByUsername:  "username",
	domain.SortByEmail:     "email",
	domain.SortByFirstName: "first_name",
	domain.SortByLastName:  "last_name",
	domain.SortByCompany:   "company",
	domain.SortByCreatedAt: "created_at",
	domain.SortByLastLogin: "last_login",
}

var searchColumns = []string{"username", "email", "first_name", "last_name", "company"}

func toDocument(u *domain.User) mongoUser {
	return mongoUser{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		BirthDate:    u.BirthDate,
		City:         u.City,
		Country:      u.Country,
		Avatar:       u.Avatar,
		Company:      u.Company,
		JobPosition:  u.JobPosition,
		Mobile:       u.Mobile,
		Role:         u.Role.String(),
		Enabled:      u.Enabled,
		CreatedAt:    u.CreatedAt.UTC(),
		LastLogin:    u.LastLogin,
	}
}

func (m *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID.Hex(),
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Profile: domain.Profile{
			FirstName:   m.FirstName,
			LastName:    m.LastName,
			BirthDate:   m.BirthDate,
			City:        m.City,
			Country:     m.Country,
			Avatar:      m.Avatar,
			Company:     m.Company,
			JobPosition: m.JobPosition,
			Mobile:      m.Mobile,
		},
		Role:      domain.Role(m.Role),
		Enabled:   m.Enabled,
		CreatedAt: m.CreatedAt.UTC(),
		LastLogin: m.LastLogin,
	}
}

// EnsureIndexes creates the unique username/email indexes the directory
// relies on, plus one on created_at for the daily stats.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName(indexUsername).SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(indexEmail).SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDocument(user)
	doc.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if dup := duplicateError(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.col.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.M{"username": username})
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *UserRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	set := bson.M{}
	putString := func(field string, v *string) {
		if v != nil {
			set[field] = *v
		}
	}
	putString("email", update.Email)
	putString("first_name", update.FirstName)
	putString("last_name", update.LastName)
	putString("city", update.City)
	putString("country", update.Country)
	putString("avatar", update.Avatar)
	putString("company", update.Company)
	putString("job_position", update.JobPosition)
	putString("mobile", update.Mobile)
	if update.BirthDate != nil {
		set["birth_date"] = update.BirthDate.UTC()
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mu mongoUser
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&mu)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, domain.ErrUserNotFound
	case err != nil:
		if dup := duplicateError(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return mu.toDomain(), nil
}

// ReplacePasswordHash is a compare-and-swap on password_hash.
func (r *UserRepository) ReplacePasswordHash(ctx context.Context, id, oldHash, newHash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "password_hash": oldHash},
		bson.M{"$set": bson.M{"password_hash": newHash}},
	)
	if err != nil {
		return fmt.Errorf("replace password: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	exists, err := r.exists(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrUserNotFound
	}
	return domain.ErrInvalidCredential
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	return r.set(ctx, id, bson.M{"role": role.String()})
}

func (r *UserRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	return r.set(ctx, id, bson.M{"enabled": enabled})
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.set(ctx, id, bson.M{"last_login": at.UTC()})
}

// set matches by id; an unchanged document still counts as success.
func (r *UserRepository) set(ctx context.Context, id string, fields bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Search(ctx context.Context, q domain.UserQuery) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := searchFilter(q.Search)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "username"
	}
	dir := 1
	if q.SortDesc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: column, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(max(q.Offset, 0)))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, total, nil
}

func (r *UserRepository) Count(ctx context.Context, f domain.UserCountFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role.String()
	}
	if !f.CreatedSince.IsZero() {
		filter["created_at"] = bson.M{"$gte": f.CreatedSince.UTC()}
	}
	n, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// searchFilter ORs a case-insensitive literal substring match across the
// searchable fields. An empty term matches everything.
func searchFilter(term string) bson.M {
	if term == "" {
		return bson.M{}
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	or := make(bson.A, 0, len(searchColumns))
	for _, col := range searchColumns {
		or = append(or, bson.M{col: pattern})
	}
	return bson.M{"$or": or}
}

// duplicateError attributes a duplicate-key error to the index that fired.
func duplicateError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexEmail):
		return domain.ErrEmailTaken
	case strings.Contains(msg, indexUsername):
		return domain.ErrUsernameTaken
	}
	return domain.ErrUserExists
}
