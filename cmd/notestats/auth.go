package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"notestats/pkg/auth"
	"notestats/pkg/logger"
	"notestats/pkg/snapshot"
	"notestats/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage note.com session credentials",
	Long: `Manage the stored note.com session cookie.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation

Scheduled runs usually skip this and provide NOTE_COOKIE, NOTE_USERNAME
and COOKIE_SET_DATE through the scheduler's secret store instead.`,
}

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store a note session cookie securely",
	Long: `Store a note.com session cookie securely.

To get the cookie:
1. Log into note.com in your browser
2. Open Developer Tools (F12) > Network and pick any request
3. Copy the entire Cookie request header

The set-date you enter drives the expiry warning; note sessions last
about three months.`,
	Example: `  # Interactive login
  notestats auth login

  # Login with username
  notestats auth login myname`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthLogin,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove a stored session cookie",
	Args:  cobra.ExactArgs(1),
	Run:   runAuthLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Long:  `List stored accounts with masked cookie values and remaining validity.`,
	Run:   runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authListCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = args[0]
	}
	if username == "" {
		fmt.Print("note username (urlname): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read username", err.Error())
			os.Exit(1)
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		ui.PrintError("Username is required")
		os.Exit(1)
	}

	// Cookie values are long and secret; read without echo
	fmt.Print("Session cookie (hidden): ")
	cookieBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		ui.PrintError("Failed to read cookie", err.Error())
		os.Exit(1)
	}
	cookie := strings.TrimSpace(string(cookieBytes))

	if err := auth.ValidateCookie(cookie, logger.GetLogger()); err != nil {
		ui.PrintError("Invalid session cookie", err.Error())
		os.Exit(1)
	}

	today := snapshot.Today()
	fmt.Printf("Cookie set-date [%s]: ", today)
	setDateInput, _ := reader.ReadString('\n')
	setDate := strings.TrimSpace(setDateInput)
	if setDate == "" {
		setDate = today
	}
	if _, err := time.Parse(auth.SetDateFormat, setDate); err != nil {
		ui.PrintError("Set-date must be YYYY-MM-DD", setDate)
		os.Exit(1)
	}

	account := &auth.Account{
		Username: username,
		Cookie:   cookie,
		SetDate:  setDate,
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Stored credentials for %s", username))
}

func runAuthLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	username := args[0]
	if err := manager.Delete(username); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Removed credentials for %s", username))
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts")
		return
	}

	now := time.Now().In(snapshot.JST)
	for _, account := range accounts {
		masked := account.Masked()
		line := fmt.Sprintf("%s  cookie=%s", masked.Username, masked.Cookie)
		if remaining, err := account.DaysRemaining(now); err == nil {
			line += fmt.Sprintf("  expires in ~%d days", remaining)
		}
		fmt.Println(line)
	}
}
