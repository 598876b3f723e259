package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/aussiebroadwan/npd/pkg/npdsdk"
	"github.com/aussiebroadwan/npd/pkg/slogx"
)

// ErrUsage is returned for unknown commands and malformed arguments.
var ErrUsage = errors.New("usage")

const usage = `usage: npd <command> [args]

commands:
  login                                  password login (NPD_LOGIN, NPD_PASSWORD or prompt)
  sms-start <phone>                      text a login code to phone
  sms-verify <phone> <challenge> <code>  complete an SMS login
  user                                   print the taxpayer profile
  income <name> <amount> [quantity]      register income and print the receipt link
  receipts [limit]                       list receipts registered from this machine
  logout                                 forget the stored session`

// Usage returns the command summary.
func Usage() string { return usage }

type command struct {
	args int // required positional arguments
	max  int // maximum positional arguments
	run  func(app *Application, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":      {args: 0, max: 0, run: (*Application).login},
	"sms-start":  {args: 1, max: 1, run: (*Application).smsStart},
	"sms-verify": {args: 3, max: 3, run: (*Application).smsVerify},
	"user":       {args: 0, max: 0, run: (*Application).user},
	"income":     {args: 2, max: 3, run: (*Application).income},
	"receipts":   {args: 0, max: 1, run: (*Application).listReceipts},
	"logout":     {args: 0, max: 0, run: (*Application).logout},
}

// Run executes one command and stores the session it leaves behind.
func (app *Application) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command\n%s", ErrUsage, usage)
	}

	name, rest := args[0], args[1:]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q\n%s", ErrUsage, name, usage)
	}
	if len(rest) < cmd.args || len(rest) > cmd.max {
		return fmt.Errorf("%w: wrong number of arguments for %s\n%s", ErrUsage, name, usage)
	}

	logger := app.logger.With("command", name)
	ctx = slogx.WithContext(ctx, logger)
	logger.Debug("running command")

	app.sessionDone = false
	err := cmd.run(app, ctx, rest)
	if !app.sessionDone {
		if perr := app.persist(ctx); perr != nil {
			err = errors.Join(err, perr)
		}
	}
	if err != nil {
		logger.Debug("command failed", "error", err)
	}
	return err
}

// ============================================================================
// Authentication
// ============================================================================

func (app *Application) login(ctx context.Context, _ []string) error {
	if app.cfg.Login == "" {
		return errors.New("NPD_LOGIN is not set")
	}

	password := app.cfg.Password
	if password == "" {
		var err error
		if password, err = promptPassword(app.prompt); err != nil {
			return err
		}
	}

	profile, err := app.client.Auth(ctx, app.cfg.Login, password)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(app.out, "authenticated as %s\n", profile.INN)
	return err
}

func (app *Application) smsStart(ctx context.Context, args []string) error {
	challenge, err := app.client.RequestSMSCode(ctx, args[0])
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(app.out, "code sent to %s\nchallenge: %s\n", challenge.Phone, challenge.ChallengeToken)
	return err
}

func (app *Application) smsVerify(ctx context.Context, args []string) error {
	phone, challenge, code := args[0], args[1], args[2]

	profile, err := app.client.AuthViaSMSCode(ctx, code, challenge, phone)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(app.out, "authenticated as %s\n", profile.INN)
	return err
}

func (app *Application) logout(ctx context.Context, _ []string) error {
	inn := app.client.INN()
	if inn == "" {
		return npdsdk.ErrNotAuthenticated
	}
	if err := app.sessions.Forget(ctx, inn); err != nil {
		return err
	}
	app.sessionDone = true

	_, err := fmt.Fprintf(app.out, "session for %s removed\n", inn)
	return err
}

// ============================================================================
// Account
// ============================================================================

func (app *Application) user(ctx context.Context, _ []string) error {
	info, err := app.client.UserInfo(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(app.out)
	enc.SetIndent("", "  ")
	return enc.Encode(info.Raw)
}

// ============================================================================
// Income
// ============================================================================

func (app *Application) income(ctx context.Context, args []string) error {
	amount, err := parseNumber(args[1])
	if err != nil {
		return fmt.Errorf("%w: amount %q: %v", ErrUsage, args[1], err)
	}

	quantity := 1.0
	if len(args) == 3 {
		if quantity, err = parseNumber(args[2]); err != nil {
			return fmt.Errorf("%w: quantity %q: %v", ErrUsage, args[2], err)
		}
	}

	res, err := app.client.AddIncome(ctx, npdsdk.SingleIncome{
		Name:     args[0],
		Quantity: quantity,
		Amount:   amount,
	})
	if err != nil {
		return err
	}

	if err := app.journal(ctx, res); err != nil {
		slogx.FromContext(ctx).Warn("receipt not journaled", "receipt", res.ApprovedReceiptUUID, "error", err)
	}

	_, err = fmt.Fprintf(app.out, "receipt %s total %s\n%s\n", res.ApprovedReceiptUUID, res.TotalAmount, res.PrintURL)
	return err
}

func (app *Application) listReceipts(ctx context.Context, args []string) error {
	limit := 0
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("%w: limit %q", ErrUsage, args[0])
		}
		limit = n
	}

	inn := app.client.INN()
	if inn == "" {
		return npdsdk.ErrNotAuthenticated
	}

	list, err := app.receipts.List(ctx, inn, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERATION TIME\tRECEIPT\tTOTAL\tLINK")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			npdsdk.DateToLocalISO(r.OperationTime, app.loc), r.ReceiptUUID, r.TotalAmount, r.PrintURL)
	}
	return tw.Flush()
}

// parseNumber accepts a decimal comma as well as a point.
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}
