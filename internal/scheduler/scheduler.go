package scheduler

import (
	"context"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"FAASentinel/internal/model"
	"FAASentinel/internal/notifier"
	"FAASentinel/internal/service"
)

// Sender delivers report messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the evaluation cycle on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Service  *service.Service
	Notifier Sender
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *service.Service, sender Sender) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Notifier: sender,
		Ctx:      ctx,
	}
}

// RegisterAll registers the evaluation task.
func (s *Scheduler) RegisterAll(evaluateCron string) error {
	if _, err := s.Cron.AddFunc(evaluateCron, s.evaluateTask); err != nil {
		return fmt.Errorf("register evaluate task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunEvaluateNow executes the evaluation task immediately (for RUN_ON_START).
func (s *Scheduler) RunEvaluateNow() {
	s.evaluateTask()
}

func (s *Scheduler) evaluateTask() {
	log.Println("[INFO] running scheduled evaluation")
	s.trySend(s.evaluate(s.Ctx, service.EvaluateRequest{Trigger: model.TriggerScheduled}))
}

func (s *Scheduler) evaluate(ctx context.Context, req service.EvaluateRequest) string {
	ev, err := s.Service.Evaluate(ctx, req)
	if err != nil {
		log.Printf("[ERROR] evaluation: %v", err)
		return notifier.FormatError("Evaluation", err)
	}
	return notifier.FormatEvaluationReport(ev)
}

const helpText = `Available commands:
• /faa [T1,T2,...] [cash] - run an evaluation now
• /buy &lt;amount&gt; [USD|KRW] - purchase plan for the last evaluation
• /tickers T1,T2,... [cash|nocash] - remember the universe
• /prefs - show preferences
• /reset - forget tickers and amount
• /history - recent evaluations
• /catalog - suggested ETFs`

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "/faa", "/evaluate":
		tickers, cash := parseUniverse(args)
		return s.evaluate(ctx, service.EvaluateRequest{Tickers: tickers, IncludeCash: cash, Trigger: model.TriggerManual})
	case "/buy":
		return s.buy(ctx, args)
	case "/tickers":
		tickers, cash := parseUniverse(args)
		includeCash := s.Service.Preferences().IncludeCash
		if cash != nil {
			includeCash = *cash
		}
		if err := s.Service.SetUniverse(tickers, includeCash); err != nil {
			return notifier.FormatError("Update tickers", err)
		}
		return notifier.FormatPreferences(s.Service.Preferences())
	case "/prefs":
		return notifier.FormatPreferences(s.Service.Preferences())
	case "/reset":
		s.Service.ResetPreferences()
		return notifier.FormatPreferences(s.Service.Preferences())
	case "/history":
		items, err := s.Service.History(10)
		if err != nil {
			return notifier.FormatError("History", err)
		}
		return notifier.FormatHistory(items)
	case "/catalog":
		return formatCatalog()
	default:
		return helpText
	}
}

func (s *Scheduler) buy(ctx context.Context, args []string) string {
	prefs := s.Service.Preferences()
	amount, currency := prefs.Amount, prefs.Currency
	if len(args) > 0 {
		v, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", ""), 64)
		if err != nil {
			return notifier.FormatError("Purchase plan", fmt.Errorf("invalid amount %q", args[0]))
		}
		amount = v
	}
	if len(args) > 1 {
		currency = strings.ToUpper(args[1])
	}

	plan, err := s.Service.Allocate(ctx, service.AllocateRequest{Amount: amount, Currency: currency})
	if err != nil {
		return notifier.FormatError("Purchase plan", err)
	}
	return notifier.FormatAllocationPlan(plan)
}

// parseUniverse reads "SPY,EFA,... [cash]" or "SPY EFA ... [cash]".
// A nil flag means the caller did not say.
func parseUniverse(args []string) ([]string, *bool) {
	var tickers []string
	var cash *bool
	for _, a := range args {
		if strings.EqualFold(a, "cash") || strings.EqualFold(a, "nocash") {
			v := strings.EqualFold(a, "cash")
			cash = &v
			continue
		}
		for _, t := range strings.Split(a, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, strings.ToUpper(t))
			}
		}
	}
	return tickers, cash
}

func formatCatalog() string {
	var b strings.Builder
	b.WriteString("📚 <b>Suggested ETFs</b>\n")
	for _, g := range model.Catalog {
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", html.EscapeString(g.Label)))
		for _, c := range g.Categories {
			tickers := make([]string, len(c.ETFs))
			for i, e := range c.ETFs {
				tickers[i] = e.Ticker
			}
			b.WriteString(fmt.Sprintf("  %s: %s\n", html.EscapeString(c.Label), strings.Join(tickers, ", ")))
		}
	}
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
