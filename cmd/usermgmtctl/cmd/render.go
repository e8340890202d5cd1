package cmd

import (
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/cirestech/usermgmt/pkg/client"
)

const timeLayout = "2006-01-02 15:04"

func userTable(users []client.User) pterm.TableData {
	data := pterm.TableData{{"ID", "USERNAME", "EMAIL", "NAME", "ROLE", "STATUS", "LAST LOGIN"}}
	for _, u := range users {
		data = append(data, []string{
			u.ID,
			u.Username,
			u.Email,
			strings.TrimSpace(u.FirstName + " " + u.LastName),
			roleName(u.Role),
			status(u.Enabled),
			lastLogin(u.LastLogin),
		})
	}
	return data
}

func renderUser(u *client.User) {
	pterm.DefaultSection.Println(u.Username)
	rows := pterm.TableData{
		{"ID", u.ID},
		{"Email", u.Email},
		{"Name", strings.TrimSpace(u.FirstName + " " + u.LastName)},
		{"Birth date", u.BirthDate},
		{"City", u.City},
		{"Country", u.Country},
		{"Company", u.Company},
		{"Job position", u.JobPosition},
		{"Mobile", u.Mobile},
		{"Avatar", u.Avatar},
		{"Role", roleName(u.Role)},
		{"Status", status(u.Enabled)},
		{"Created", u.CreatedAt.Local().Format(timeLayout)},
		{"Last login", lastLogin(u.LastLogin)},
	}
	_ = pterm.DefaultTable.WithData(rows).Render()
}

// roleName drops the ROLE_ prefix for display.
func roleName(role string) string {
	return strings.ToLower(strings.TrimPrefix(role, "ROLE_"))
}

func status(enabled bool) string {
	if enabled {
		return "active"
	}
	return "disabled"
}

func lastLogin(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(timeLayout)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
