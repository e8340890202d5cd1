package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cirestech/usermgmt/pkg/client"
)

// profileFlags exposes every editable profile field as a flag. Only flags
// the user actually passed end up in the update.
type profileFlags struct {
	values map[string]*string
}

var profileFields = []struct {
	flag  string
	usage string
	field func(*client.ProfileUpdate) **string
}{
	{"email", "email address", func(u *client.ProfileUpdate) **string { return &u.Email }},
	{"first-name", "first name", func(u *client.ProfileUpdate) **string { return &u.FirstName }},
	{"last-name", "last name", func(u *client.ProfileUpdate) **string { return &u.LastName }},
	{"birth-date", "birth date (YYYY-MM-DD)", func(u *client.ProfileUpdate) **string { return &u.BirthDate }},
	{"city", "city", func(u *client.ProfileUpdate) **string { return &u.City }},
	{"country", "country", func(u *client.ProfileUpdate) **string { return &u.Country }},
	{"avatar", "avatar URL", func(u *client.ProfileUpdate) **string { return &u.Avatar }},
	{"company", "company", func(u *client.ProfileUpdate) **string { return &u.Company }},
	{"job-position", "job position", func(u *client.ProfileUpdate) **string { return &u.JobPosition }},
	{"mobile", "mobile phone", func(u *client.ProfileUpdate) **string { return &u.Mobile }},
}

func (p *profileFlags) register(cmd *cobra.Command) {
	p.values = make(map[string]*string, len(profileFields))
	for _, f := range profileFields {
		p.values[f.flag] = cmd.Flags().String(f.flag, "", f.usage)
	}
}

// toUpdate reports false when no profile flag was given.
func (p *profileFlags) toUpdate(cmd *cobra.Command) (client.ProfileUpdate, bool) {
	var up client.ProfileUpdate
	changed := false
	for _, f := range profileFields {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		v := *p.values[f.flag]
		*f.field(&up) = &v
		changed = true
	}
	return up, changed
}
