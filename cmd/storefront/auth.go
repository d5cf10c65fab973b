package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steve-ongera/phoneplace-kenya/internal/api"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
	"github.com/steve-ongera/phoneplace-kenya/internal/session"
	"github.com/steve-ongera/phoneplace-kenya/internal/tokens"
)

// readSecret takes the value from the flag, then STOREFRONT_PASSWORD, then
// one line of stdin.
func readSecret(in io.Reader, flagValue, prompt string, out io.Writer) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv("STOREFRONT_PASSWORD"); v != "" {
		return v, nil
	}
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// printFieldErrors shows backend or local validation errors field by field.
func printFieldErrors(w io.Writer, err error) {
	var fields map[string]string
	var herr *api.HTTPError
	var verr *session.ValidationError
	switch {
	case errors.As(err, &verr):
		fields = verr.Fields
	case errors.As(err, &herr):
		fields = herr.FieldErrors()
	}
	for name, msg := range fields {
		fmt.Fprintf(w, "  %s: %s\n", color.YellowString(name), msg)
	}
}

func loginCmd(get func() *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			pw, err := readSecret(cmd.InOrStdin(), password, "Password: ", cmd.OutOrStdout())
			if err != nil {
				return err
			}
			user, err := a.session.Login(cmd.Context(), domain.Credentials{Email: email, Password: pw})
			if err != nil {
				var herr *api.HTTPError
				if errors.As(err, &herr) {
					return errors.New(herr.Message())
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", user.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (or STOREFRONT_PASSWORD, or stdin)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func registerCmd(get func() *app) *cobra.Command {
	var form session.RegisterForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			pw, err := readSecret(cmd.InOrStdin(), form.Password, "Password: ", cmd.OutOrStdout())
			if err != nil {
				return err
			}
			form.Password = pw
			if form.Password2 == "" {
				form.Password2 = pw
			}
			user, err := a.session.Register(cmd.Context(), form)
			if err != nil {
				printFieldErrors(cmd.ErrOrStderr(), err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", user.DisplayName())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.FirstName, "first-name", "", "first name")
	f.StringVar(&form.LastName, "last-name", "", "last name")
	f.StringVarP(&form.Email, "email", "e", "", "email, also used as username")
	f.StringVar(&form.Phone, "phone", "", "phone number")
	f.StringVarP(&form.Password, "password", "p", "", "password (or STOREFRONT_PASSWORD, or stdin)")
	f.StringVar(&form.Password2, "confirm", "", "password confirmation (defaults to the password)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return get().session.Logout(cmd.Context())
		},
	}
}

func whoamiCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in customer and token expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			out := cmd.OutOrStdout()
			state := a.store.State()
			if !state.LoggedIn() {
				fmt.Fprintln(out, "Not logged in (guest)")
				return nil
			}
			fmt.Fprintf(out, "%s <%s>\n", state.User.DisplayName(), state.User.Email)
			fmt.Fprintf(out, "Auth state: %s\n", a.client.AuthState(cmd.Context()))

			pair, err := tokens.LoadPair(cmd.Context(), a.tokens)
			if err != nil {
				return err
			}
			claims, err := tokens.Inspect(pair.Access)
			if err != nil {
				a.logger.Debug("access token not inspectable", "err", err)
				return nil
			}
			if claims.Expired(time.Now()) {
				fmt.Fprintln(out, color.YellowString("Access token expired; it will be refreshed on the next request"))
			} else if !claims.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "Access token valid until %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func profileCmd(get func() *app) *cobra.Command {
	var patch struct{ first, last, phone, address, city, county string }
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			update := domain.ProfileUpdate{}
			changed := false
			set := func(name string, dst **string, v string) {
				if cmd.Flags().Changed(name) {
					*dst = &v
					changed = true
				}
			}
			set("first-name", &update.FirstName, patch.first)
			set("last-name", &update.LastName, patch.last)
			set("phone", &update.Phone, patch.phone)
			set("address", &update.Address, patch.address)
			set("city", &update.City, patch.city)
			set("county", &update.County, patch.county)

			var user *domain.User
			var err error
			if changed {
				user, err = a.session.UpdateProfile(cmd.Context(), update)
			} else {
				user, err = a.loader.Profile(cmd.Context())
			}
			if err != nil {
				printFieldErrors(cmd.ErrOrStderr(), err)
				return err
			}

			out := cmd.OutOrStdout()
			printHeading(out, user.DisplayName())
			fmt.Fprintf(out, "  Email:  %s\n", user.Email)
			if p := user.Profile; p != nil {
				fmt.Fprintf(out, "  Phone:  %s\n  Address: %s, %s, %s\n", p.Phone, p.Address, p.City, p.County)
			}
			fmt.Fprintf(out, "  Member since %s\n", user.DateJoined.Format("January 2006"))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&patch.first, "first-name", "", "new first name")
	f.StringVar(&patch.last, "last-name", "", "new last name")
	f.StringVar(&patch.phone, "phone", "", "new phone number")
	f.StringVar(&patch.address, "address", "", "new address")
	f.StringVar(&patch.city, "city", "", "new city")
	f.StringVar(&patch.county, "county", "", "new county")
	return cmd
}
