package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"ibanking/backend/libs/logging"
	"ibanking/backend/services/otp-client/internal/api"
	"ibanking/backend/services/otp-client/internal/authstate"
	"ibanking/backend/services/otp-client/internal/config"
	"ibanking/backend/services/otp-client/internal/flow"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger("otp-client")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	client := api.NewClient(cfg.API.BaseURL, logger)
	authStore := authstate.NewStore(cfg.Auth.StatePath)

	loop := flow.NewLoop()
	go loop.Run(ctx)

	controller := flow.NewController(
		ctx,
		flow.LoopRuntime{Loop: loop},
		flow.RealClock(),
		client,
		consoleNotifier{},
		authStore,
		logger,
		flow.Config{
			DefaultTTLSeconds:     cfg.OTP.TTLSeconds,
			ResendCooldownSeconds: cfg.OTP.ResendCooldownSeconds,
			AutoCloseSeconds:      cfg.OTP.AutoCloseSeconds,
			PollInterval:          cfg.PollInterval(),
		},
	)
	controller.RestoreSession()

	logger.Info("client started", zap.String("api", cfg.API.BaseURL))
	runConsole(ctx, controller, client)
}

type consoleNotifier struct{}

func (consoleNotifier) Success(msg string) { fmt.Println("[ok]", msg) }

func (consoleNotifier) Error(msg string) { fmt.Println("[error]", msg) }

func runConsole(ctx context.Context, controller *flow.Controller, client *api.Client) {
	fmt.Println("iBanking tuition payment. Type 'help' for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			printHelp()
		case "login":
			if len(args) != 2 {
				fmt.Println("usage: login <username> <password>")
				continue
			}
			controller.Login(args[0], args[1])
		case "logout":
			controller.Logout()
		case "lookup":
			if len(args) != 1 {
				fmt.Println("usage: lookup <student-id>")
				continue
			}
			controller.Lookup(args[0])
		case "pay":
			controller.Pay()
		case "otp":
			if len(args) != 1 {
				fmt.Println("usage: otp <digits>")
				continue
			}
			if len(args[0]) == 1 {
				controller.TypeDigit(rune(args[0][0]))
			} else {
				controller.Paste(args[0])
			}
		case "back":
			controller.Backspace()
		case "resend":
			controller.Resend()
		case "min":
			controller.Minimize()
		case "max":
			controller.Maximize()
		case "close":
			controller.ClosePopup()
		case "history":
			printHistory(ctx, client)
		case "status":
			printState(controller.Snapshot())
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", cmd)
		}

		if cmd != "status" && cmd != "history" && cmd != "help" {
			printState(controller.Snapshot())
		}
	}
}

func printHelp() {
	fmt.Print(`commands:
  login <username> <password>   sign in
  logout                        sign out
  lookup <student-id>           fetch tuition for a student
  pay                           start (or resume) the payment
  otp <digits>                  type one digit or paste several
  back                          erase the last digit
  resend                        request a fresh OTP
  min / max / close             minimize, restore, or close the popup
  history                       list past transactions
  status                        show the current state
  quit                          exit
`)
}

func printState(s flow.State) {
	if !s.LoggedIn {
		fmt.Println("  not signed in")
		return
	}
	fmt.Printf("  %s | balance %.0f VND\n", s.Profile.FullName, s.Profile.Balance)
	if s.Tuition != nil {
		paid := "unpaid"
		if s.Tuition.Paid {
			paid = "paid"
		}
		fmt.Printf("  tuition: %s %s %s %.0f VND (%s)\n",
			s.Tuition.StudentID, s.Tuition.StudentName, s.Tuition.Semester, s.Tuition.Amount, paid)
	}
	if s.TransactionID != 0 {
		fmt.Printf("  transaction #%d %s\n", s.TransactionID, s.TransactionStatus)
	}
	if s.Popup == flow.PopupClosed {
		return
	}
	fmt.Printf("  popup %s | code expires in %s", s.Popup, flow.FormatSeconds(s.TTLSeconds))
	if s.CooldownSeconds > 0 {
		fmt.Printf(" | resend in %ds", s.CooldownSeconds)
	}
	if s.AutoCloseSeconds > 0 {
		fmt.Printf(" | closing in %ds", s.AutoCloseSeconds)
	}
	fmt.Println()
	var boxes []string
	for _, slot := range s.Slots {
		if slot == "" {
			slot = "_"
		}
		boxes = append(boxes, slot)
	}
	fmt.Printf("  otp: %s\n", strings.Join(boxes, " "))
	if s.ResendCount > 0 {
		fmt.Printf("  resends used: %d of 3\n", s.ResendCount)
	}
	if !s.InputEnabled {
		fmt.Println("  code expired, resend to continue")
	}
}

func printHistory(ctx context.Context, client *api.Client) {
	txs, err := client.History(ctx)
	if err != nil {
		fmt.Println("[error]", err)
		return
	}
	if len(txs) == 0 {
		fmt.Println("  no transactions")
		return
	}
	for _, tx := range txs {
		fmt.Printf("  #%d %-11s %s %s %.0f VND %s\n",
			tx.ID, tx.Status, tx.StudentID, tx.Semester, tx.Amount,
			tx.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}
