package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/doceeser/orderboard/internal/rpc/boardv1"
	grpcsvc "github.com/doceeser/orderboard/internal/service/grpc"
)

const (
	defaultAddr    = "localhost:50051"
	requestTimeout = 5 * time.Second
	usage          = "usage: boardctl [-addr host:port] [-password pw | -token t] login|watch|set-status [args]"
)

type options struct {
	addr     string
	password string
	token    string
}

func main() {
	opts := options{}
	flag.StringVar(&opts.addr, "addr", envOr("BOARD_GRPC_TARGET", defaultAddr), "board gRPC address")
	flag.StringVar(&opts.password, "password", os.Getenv("BOARD_ADMIN_PASSWORD"), "admin password (used when no token is given)")
	flag.StringVar(&opts.token, "token", os.Getenv("BOARD_TOKEN"), "session token from a previous login")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := grpc.NewClient(opts.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fail("connect %s: %v", opts.addr, err)
	}
	defer conn.Close()

	if err := run(ctx, boardv1.NewBoardServiceClient(conn), opts, flag.Args(), os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		fail("%v", err)
	}
}

func run(ctx context.Context, client boardv1.BoardServiceClient, opts options, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "login":
		resp, err := login(ctx, client, opts.password)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s\nexpires: %s\n", resp.Token, resp.ExpiresAt.Format(time.RFC3339))
		return nil

	case "watch":
		fs := flag.NewFlagSet("watch", flag.ContinueOnError)
		filter := fs.String("filter", "all", "board filter: all|new|preparing|ready|delivered")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		token, err := resolveToken(ctx, client, opts)
		if err != nil {
			return err
		}
		return watch(grpcsvc.BearerToken(ctx, token), client, *filter, out)

	case "set-status":
		if len(args) != 3 {
			return errors.New("usage: boardctl set-status <order-id> <new|preparing|ready|delivered>")
		}
		token, err := resolveToken(ctx, client, opts)
		if err != nil {
			return err
		}
		callCtx, cancel := context.WithTimeout(grpcsvc.BearerToken(ctx, token), requestTimeout)
		defer cancel()
		if _, err := client.SetOrderStatus(callCtx, &boardv1.SetOrderStatusRequest{OrderID: args[1], Status: args[2]}); err != nil {
			return fmt.Errorf("set status: %w", err)
		}
		_, _ = fmt.Fprintf(out, "order %s -> %s\n", args[1], args[2])
		return nil

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func login(ctx context.Context, client boardv1.BoardServiceClient, password string) (*boardv1.LoginResponse, error) {
	if password == "" {
		return nil, errors.New("password is required (-password or BOARD_ADMIN_PASSWORD)")
	}
	callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	resp, err := client.Login(callCtx, &boardv1.LoginRequest{Password: password})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return resp, nil
}

func resolveToken(ctx context.Context, client boardv1.BoardServiceClient, opts options) (string, error) {
	if opts.token != "" {
		return opts.token, nil
	}
	resp, err := login(ctx, client, opts.password)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// watch печатает доску при каждом изменении. Звук передаётся символом BEL.
func watch(ctx context.Context, client boardv1.BoardServiceClient, filter string, out io.Writer) error {
	stream, err := client.WatchBoard(ctx, &boardv1.WatchBoardRequest{Filter: filter, Permission: "granted"})
	if err != nil {
		return fmt.Errorf("watch board: %w", err)
	}
	for {
		update, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receive update: %w", err)
		}
		printUpdate(out, update)
	}
}

func printUpdate(out io.Writer, update *boardv1.BoardUpdate) {
	switch update.Kind {
	case boardv1.UpdateKindSession:
		_, _ = fmt.Fprintf(out, "session %s\n", update.SessionID)
	case boardv1.UpdateKindSound:
		_, _ = fmt.Fprint(out, "\a")
	case boardv1.UpdateKindNotification:
		if n := update.Notification; n != nil {
			_, _ = fmt.Fprintf(out, ">> %s: %s\n", n.Title, n.Body)
		}
	case boardv1.UpdateKindBoard:
		printBoard(out, update.Board)
	}
}

func printBoard(out io.Writer, state *boardv1.BoardState) {
	if state == nil {
		return
	}
	header := fmt.Sprintf("== filter: %s", state.Filter)
	if state.BannerVisible {
		header += "  [" + state.BannerText + "]"
	}
	_, _ = fmt.Fprintln(out, header)
	if state.Loading {
		_, _ = fmt.Fprintln(out, state.LoadingLabel)
		return
	}
	if len(state.Cards) == 0 {
		_, _ = fmt.Fprintln(out, state.EmptyMessage)
		return
	}
	for _, card := range state.Cards {
		_, _ = fmt.Fprintf(out, "#%s  %-10s  %s  %s\n", card.ID, card.StatusLabel, card.CreatedAt, card.Total)
		_, _ = fmt.Fprintf(out, "    %s  %s  %s\n", card.Customer, card.Phone, card.Address)
		for _, item := range card.Items {
			_, _ = fmt.Fprintf(out, "    - %s\n", item)
		}
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
