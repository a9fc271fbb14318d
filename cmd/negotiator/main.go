package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/agrilink/negotiation-service/internal/client/socket"
	"github.com/agrilink/negotiation-service/internal/client/store"
	"github.com/agrilink/negotiation-service/internal/config"
	api "github.com/agrilink/negotiation-service/internal/generated"
	"github.com/agrilink/negotiation-service/internal/model"
	"github.com/agrilink/negotiation-service/internal/session"
)

const (
	serviceName    = "negotiator"
	requestTimeout = 15 * time.Second
	countdownTick  = time.Second
)

const usage = `usage: negotiator [flags] <command> [args]

commands:
  list [status]                          negotiations of the user
  start <listing> <farmer> <kg> <price>  open a negotiation as the buyer
  show                                   print the negotiation given by -chat
  text <message...>                      send a text message
  contact <name> <phone>                 share contact details
  offer <price>                          send a counter-offer per kg
  accept | reject                        decide on the pending offer
  checkout                               hand the accepted deal to the cart
  watch                                  print every change until interrupted

flags:
`

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoadClient()

	flags := flag.NewFlagSet(serviceName, flag.ExitOnError)
	flags.StringVar(&cfg.APIURL, "api", cfg.APIURL, "negotiation API base URL")
	flags.StringVar(&cfg.WSURL, "ws", cfg.WSURL, "realtime WebSocket URL")
	flags.StringVar(&cfg.Token, "token", cfg.Token, "connect token; the user header is sent when empty")
	flags.StringVar(&cfg.UserID, "user", cfg.UserID, "id of the acting user")
	chatID := flags.String("chat", "", "negotiation id")
	flags.Usage = func() {
		fmt.Fprint(flags.Output(), usage)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() == 0 || cfg.UserID == "" {
		flags.Usage()
		os.Exit(2)
	}

	logger := logger_lib.New(cfg.Logger.Host, cfg.Logger.Port, serviceName, cfg.Platform.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storeClient := store.New(store.Config{BaseURL: cfg.APIURL, Token: cfg.Token, UserID: cfg.UserID, Timeout: requestTimeout})
	defer storeClient.Close()

	app := &app{cfg: cfg, store: storeClient, logger: logger, out: os.Stdout, chatID: *chatID}
	if err := app.run(ctx, flags.Arg(0), flags.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "negotiator: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Client
	store  *store.Client
	logger logger_lib.LoggerInterface
	out    io.Writer
	chatID string
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "list":
		return a.list(ctx, args)
	case "start":
		return a.start(ctx, args)
	}

	if a.chatID == "" {
		return errors.New("-chat is required")
	}

	switch command {
	case "show":
		return a.withSession(ctx, false, func(s *session.Session) error {
			printView(a.out, s.View())
			return nil
		})
	case "text":
		if len(args) == 0 {
			return errors.New("text needs a message")
		}
		return a.act(ctx, func(s *session.Session) error {
			return s.SendText(ctx, strings.Join(args, " "))
		})
	case "contact":
		if len(args) != 2 {
			return errors.New("contact needs a name and a phone")
		}
		return a.act(ctx, func(s *session.Session) error {
			return s.ShareContact(ctx, args[0], args[1])
		})
	case "offer":
		if len(args) != 1 {
			return errors.New("offer needs a price")
		}
		price, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", args[0], err)
		}
		return a.act(ctx, func(s *session.Session) error {
			return s.SendOffer(ctx, price)
		})
	case "accept":
		return a.act(ctx, func(s *session.Session) error {
			return s.Accept(ctx)
		})
	case "reject":
		return a.act(ctx, func(s *session.Session) error {
			return s.Reject(ctx)
		})
	case "checkout":
		return a.withSession(ctx, false, func(s *session.Session) error {
			handoff, err := s.Checkout(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "checked out %s: %.2f kg of %s at %.2f/kg\n",
				handoff.NegotiationID, handoff.Quantity, handoff.ListingID, handoff.Price)
			return nil
		})
	case "watch":
		return a.watch(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) list(ctx context.Context, args []string) error {
	var status model.NegotiationStatus
	if len(args) > 0 {
		status = model.NegotiationStatus(strings.ToUpper(args[0]))
	}

	chats, err := a.store.List(ctx, status, 0)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLISTING\tBUYER\tFARMER\tKG\tOFFER\tSTATUS\tUPDATED")
	for _, chat := range chats {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.2f\t%s\t%s\n",
			chat.ID, chat.ListingID, chat.BuyerID, chat.FarmerID,
			chat.RequestedQuantity, chat.CurrentOffer, chat.Status, chat.UpdatedAt.Local().Format(time.Stamp))
	}
	return tw.Flush()
}

func (a *app) start(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return errors.New("start needs a listing, a farmer, a quantity and a price")
	}

	quantity, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", args[2], err)
	}
	price, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", args[3], err)
	}

	chat, err := a.store.Start(ctx, api.StartNegotiationRequest{
		ListingId:    args[0],
		FarmerId:     args[1],
		Quantity:     quantity,
		InitialOffer: price,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "started negotiation %s\n", chat.ID)
	return nil
}

// act runs one action and prints the resulting view. A failed action reports
// the rejected input so it can be sent again.
func (a *app) act(ctx context.Context, fn func(s *session.Session) error) error {
	return a.withSession(ctx, false, func(s *session.Session) error {
		if err := fn(s); err != nil {
			var actionErr *session.ActionError
			if errors.As(err, &actionErr) && actionErr.Input != "" {
				return fmt.Errorf("%w (input %q kept)", err, actionErr.Input)
			}
			return err
		}
		printView(a.out, s.View())
		return nil
	})
}

func (a *app) watch(ctx context.Context) error {
	return a.withSession(ctx, true, func(s *session.Session) error {
		printView(a.out, s.View())

		ticker := time.NewTicker(countdownTick)
		defer ticker.Stop()

		watchCountdown(ctx, a.out, s, ticker.C)
		return nil
	})
}

type viewer interface {
	View() session.View
}

// watchCountdown redraws the checkout countdown on every tick while the window
// is open and reports its expiry once.
func watchCountdown(ctx context.Context, w io.Writer, s viewer, ticks <-chan time.Time) {
	reportedExpiry := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			v := s.View()
			switch {
			case v.Actions.CanCheckout:
				fmt.Fprintf(w, "\rcheckout window: %s left ", v.Actions.Remaining.Truncate(time.Second))
				reportedExpiry = false
			case v.Actions.Expired && !reportedExpiry:
				fmt.Fprintln(w, "\rcheckout window expired")
				reportedExpiry = true
			}
		}
	}
}

// withSession opens a session on the negotiation. Realtime updates are only
// attached when live is set; one-shot commands work from the REST state.
func (a *app) withSession(ctx context.Context, live bool, fn func(s *session.Session) error) error {
	var (
		bus  session.Bus = detachedBus{}
		opts []session.Option
	)

	if live {
		socketBus, err := socket.Dial(ctx, socket.Config{URL: a.cfg.WSURL, ConnectToken: a.cfg.Token, UserID: a.cfg.UserID}, a.store, a.logger)
		if err != nil {
			return err
		}
		defer socketBus.Close() //nolint:errcheck // .
		bus = socketBus
		opts = append(opts, session.WithOnChange(func(v session.View) {
			fmt.Fprintln(a.out, "---")
			printView(a.out, v)
		}))
	}

	s := session.New(a.chatID, a.cfg.UserID, a.store, bus, a.logger, opts...)
	if err := s.Open(ctx); err != nil {
		return err
	}
	defer s.Close(context.Background()) //nolint:errcheck // .

	return fn(s)
}

// detachedBus is the bus of one-shot commands: rooms are never joined.
type detachedBus struct{}

func (detachedBus) JoinNegotiationRoom(context.Context, string) error  { return nil }
func (detachedBus) LeaveNegotiationRoom(context.Context, string) error { return nil }
func (detachedBus) OnNegotiationMessage(string, func(model.NegotiationMessage)) func() {
	return func() {}
}
func (detachedBus) OnNegotiationStatus(string, func(model.StatusChange)) func() {
	return func() {}
}

func printView(w io.Writer, v session.View) {
	if !v.Loaded {
		fmt.Fprintln(w, "negotiation not loaded")
		return
	}

	chat := v.Chat
	fmt.Fprintf(w, "%s  listing %s  %.2f kg  %s  %.2f/kg\n",
		chat.ID, chat.ListingID, chat.RequestedQuantity, chat.Status, chat.CurrentOffer)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range v.Messages {
		body := m.Text
		if m.IsOffer() {
			body = fmt.Sprintf("offer %.2f/kg [%s]", m.Value(), m.Status())
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.CreatedAt.Local().Format(time.Kitchen), m.SenderID, body)
	}
	_ = tw.Flush()

	var actions []string
	if v.Actions.CanSendText {
		actions = append(actions, "text")
	}
	if v.Actions.CanCounter {
		actions = append(actions, "offer")
	}
	if v.Actions.CanAccept {
		actions = append(actions, "accept", "reject")
	}
	if v.Actions.CanCheckout {
		actions = append(actions, fmt.Sprintf("checkout (%s left)", v.Actions.Remaining.Truncate(time.Second)))
	}
	if v.Actions.Expired {
		actions = append(actions, "checkout window expired")
	}
	if len(actions) == 0 {
		actions = append(actions, "none")
	}
	fmt.Fprintf(w, "actions: %s\n", strings.Join(actions, ", "))
}
