package service

import "github.com/cirestech/usermgmt/internal/core/domain"

// Authorize is the authorization gate. A nil claim set is unauthenticated; an
// empty required set admits any authenticated principal; otherwise one of the
// principal's roles must be in required.
func Authorize(claims *domain.Claims, required ...domain.Role) error {
	if claims == nil {
		return domain.ErrUnauthenticated
	}
	if len(required) == 0 || claims.HasAnyRole(required...) {
		return nil
	}
	return domain.ErrForbidden
}

// AuthorizeSelfOrAdmin admits the principal named username or any admin.
func AuthorizeSelfOrAdmin(claims *domain.Claims, username string) error {
	if err := Authorize(claims); err != nil {
		return err
	}
	if claims.Subject == username || claims.HasRole(domain.RoleAdmin) {
		return nil
	}
	return domain.ErrForbidden
}
