package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/credential"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/source/backend"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Sign in to the task backend",
	GroupID: "system",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store backend credentials and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.vault == nil {
			return errors.New("no credential store available on this system")
		}

		url, _ := cmd.Flags().GetString("url")
		apiKey, _ := cmd.Flags().GetString("api-key")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if url == "" {
			url = rt.cfg.Backend.URL
		}
		if apiKey == "" {
			apiKey, _ = rt.vault.Get(credential.KeyAPIKey)
		}

		var fields []huh.Field
		if url == "" {
			fields = append(fields, huh.NewInput().Title("Backend URL").Placeholder("https://xyz.supabase.co").Value(&url))
		}
		if apiKey == "" {
			fields = append(fields, huh.NewInput().Title("API key").EchoMode(huh.EchoModePassword).Value(&apiKey))
		}
		if email == "" {
			fields = append(fields, huh.NewInput().Title("Email").Value(&email))
		}
		if password == "" {
			fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password))
		}
		if len(fields) > 0 {
			if err := huh.NewForm(huh.NewGroup(fields...)).RunWithContext(cmd.Context()); err != nil {
				return err
			}
		}

		url, apiKey, email = strings.TrimSpace(url), strings.TrimSpace(apiKey), strings.TrimSpace(email)
		if url == "" || apiKey == "" || email == "" || password == "" {
			return errors.New("url, api key, email and password are all required")
		}

		client := backend.NewClient(url, apiKey, "", backend.WithHTTPClient(rt.monitor.Client(requestTimeout)))
		session, err := backend.NewAdapter(client, rt.cfg.Backend.Table, "").SignIn(cmd.Context(), email, password)
		if err != nil {
			return err
		}

		if err := rt.vault.Set(credential.KeyAPIKey, apiKey); err != nil {
			return err
		}
		if err := rt.vault.Set(credential.KeyAccessToken, session.AccessToken); err != nil {
			return err
		}

		rt.cfg.Backend.URL = url
		rt.cfg.Backend.UserID = session.UserID
		if err := model.SaveConfig(configPath, rt.cfg); err != nil {
			return err
		}

		fmt.Printf("Signed in as %s\n", session.Email)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.vault == nil {
			return errors.New("no credential store available on this system")
		}
		if err := rt.vault.Delete(credential.KeyAccessToken); err != nil {
			return err
		}
		if all, _ := cmd.Flags().GetBool("all"); all {
			if err := rt.vault.Delete(credential.KeyAPIKey); err != nil {
				return err
			}
		}
		fmt.Println("Signed out")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the backend connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.backend == nil {
			return errOffline
		}
		email, err := rt.backend.ValidateConnection(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Connected to %s as %s\n", rt.cfg.Backend.URL, email)
		return nil
	},
}

func init() {
	authLoginCmd.Flags().String("url", "", "backend project URL")
	authLoginCmd.Flags().String("api-key", "", "backend API key")
	authLoginCmd.Flags().String("email", "", "account email")
	authLoginCmd.Flags().String("password", "", "account password")
	authLogoutCmd.Flags().Bool("all", false, "also forget the API key")

	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
