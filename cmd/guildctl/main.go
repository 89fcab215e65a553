// guildctl - operator tool for the guild damage tracker
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"guild-tracker/internal/auth"
	"guild-tracker/internal/config"
	"guild-tracker/internal/server"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

const defaultURL = "http://localhost:8080"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "hash-password":
		err = cmdHashPassword(os.Args[2:])
	case "onboard-link":
		err = cmdOnboardLink(os.Args[2:])
	case "leaderboard":
		err = cmdLeaderboard(os.Args[2:])
	case "history":
		err = cmdHistory(os.Args[2:])
	case "admin":
		err = cmdAdmin(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: guildctl <command> [options] [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  hash-password                       Prompt for a password and print its bcrypt hash")
	fmt.Println("  onboard-link [--base-url URL]       Encode the current settings into an onboarding link")
	fmt.Println("  leaderboard [--guild G] [--top N]   Show the season leaderboard")
	fmt.Println("  history <player-key>                Show one player's observations")
	fmt.Println("  admin delete <observation-id>       Delete one observation (prompts for admin password)")
	fmt.Println("  admin clear                         Clear the whole season (prompts for admin password)")
	fmt.Println()
	fmt.Println("Global Options:")
	fmt.Printf("  --url <url>    Base URL of the tracker server (default %s)\n", defaultURL)
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

func newClient(url string) *server.Client {
	return server.NewClient(&http.Client{Timeout: 30 * time.Second}, url)
}

func cmdHashPassword(args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	fs.Parse(args)

	password, err := readPassword("Enter password: ")
	if err != nil {
		return err
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	fmt.Println(hash)
	return nil
}

func cmdOnboardLink(args []string) error {
	fs := flag.NewFlagSet("onboard-link", flag.ExitOnError)
	baseURL := fs.String("base-url", "http://localhost:5173/", "dashboard URL members open")
	fs.Parse(args)

	cfg, err := config.Load(zerolog.Nop())
	if err != nil {
		return err
	}

	link, err := config.BundleFrom(cfg).Link(*baseURL)
	if err != nil {
		return err
	}
	fmt.Println(link)
	return nil
}

func cmdLeaderboard(args []string) error {
	fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
	url := fs.String("url", defaultURL, "base URL of the tracker server")
	guild := fs.String("guild", "", "only show one guild (main or sub)")
	top := fs.Int("top", 20, "number of players to show")
	fs.Parse(args)

	board, err := newClient(*url).GetLeaderboard(context.Background(), &server.GetLeaderboardRequest{Guild: *guild, Limit: *top})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tPLAYER\tGUILD\tTOTAL\tDAILY MAX\tENTRIES\tUPDATED")
	fmt.Fprintln(w, "----\t------\t-----\t-----\t---------\t-------\t-------")
	for _, e := range board.Entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			e.Rank, e.DisplayName, e.Guild, e.AccumulatedTotal, e.MaxDailyTicket, e.EntryCount, e.LastUpdatedAt)
	}
	w.Flush()

	if n := len(board.Unattributed); n > 0 {
		fmt.Printf("\n%d unattributed observation(s) not ranked\n", n)
	}
	return nil
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	url := fs.String("url", defaultURL, "base URL of the tracker server")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("player key required")
	}

	history, err := newClient(*url).GetPlayerHistory(context.Background(), &server.GetPlayerHistoryRequest{PlayerKey: fs.Arg(0)})
	if err != nil {
		return err
	}

	s := history.Stats
	fmt.Printf("%s (#%d, %s): total %d, daily max %d\n\n", s.DisplayName, s.Rank, s.Guild, s.AccumulatedTotal, s.MaxDailyTicket)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTOTAL\tTICKET\tCAPTURED")
	for _, o := range history.Observations {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", o.ID, o.Kind, o.TotalDamage, o.TicketDamage, o.CapturedAt)
	}
	w.Flush()
	return nil
}

func cmdAdmin(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("admin subcommand required: delete, clear")
	}

	fs := flag.NewFlagSet("admin "+args[0], flag.ExitOnError)
	url := fs.String("url", defaultURL, "base URL of the tracker server")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	fs.Parse(args[1:])

	client := newClient(*url)
	ctx := context.Background()

	login := func() (string, error) {
		password, err := readPassword("Admin password: ")
		if err != nil {
			return "", err
		}
		resp, err := client.AdminLogin(ctx, password)
		if err != nil {
			return "", err
		}
		return resp.Token, nil
	}

	switch args[0] {
	case "delete":
		if fs.NArg() < 1 {
			return fmt.Errorf("observation id required")
		}
		token, err := login()
		if err != nil {
			return err
		}
		if err := client.DeleteObservation(ctx, token, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Printf("Deleted observation %s\n", fs.Arg(0))
	case "clear":
		if !*yes && !confirm("This deletes every observation of the season. Continue? [y/N] ") {
			return nil
		}
		token, err := login()
		if err != nil {
			return err
		}
		if err := client.ClearSeason(ctx, token); err != nil {
			return err
		}
		fmt.Println("Season cleared")
	default:
		return fmt.Errorf("unknown admin subcommand: %s", args[0])
	}
	return nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	var answer string
	fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
