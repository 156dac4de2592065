package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"markowitzBot/internal/engine"
	"markowitzBot/internal/markowitz"
	"markowitzBot/internal/openai"
)

var (
	// /optimize [capital] [target%]
	reOptimize = regexp.MustCompile(`^/optimize(?:@[\w_]+)?(\s+.*)?$`)
	// /minrisk [capital]
	reMinRisk = regexp.MustCompile(`^/minrisk(?:@[\w_]+)?(\s+.*)?$`)
	// /target [capital] [target%]
	reTarget   = regexp.MustCompile(`^/target(?:@[\w_]+)?(\s+.*)?$`)
	reFrontier = regexp.MustCompile(`^/frontier(?:@[\w_]+)?$`)
	// /backtest YYYY-MM-DD [target%]
	reBacktest = regexp.MustCompile(`^/backtest(?:@[\w_]+)?(\s+.*)?$`)
	reHelp     = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

// sessionTimeout bounds one command: network retries plus the fallback chain.
const sessionTimeout = 3 * time.Minute

// Session holds what every command needs to run one optimization.
type Session struct {
	Fetcher  engine.Fetcher
	Tickers  []string
	Start    time.Time
	End      time.Time
	Defaults engine.Params
}

func (s Session) request(p engine.Params) engine.Request {
	return engine.Request{Tickers: s.Tickers, Start: s.Start, End: s.End, Params: p}
}

type Handlers struct {
	api     *tgbotapi.BotAPI
	session Session
	comment *openai.Commentator
}

// NewHandlers wires the commands. A nil commentator disables commentary.
func NewHandlers(api *tgbotapi.BotAPI, session Session, comment *openai.Commentator) *Handlers {
	return &Handlers{api: api, session: session, comment: comment}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	txt := strings.TrimSpace(m.Text)
	chatID := m.Chat.ID
	switch {
	case reOptimize.MatchString(txt):
		p, err := ParseSessionArgs(txt, h.session.Defaults)
		if err != nil {
			h.reply(chatID, "Invalid arguments: "+err.Error()+"\nUsage: /optimize [capital] [target%]")
			return
		}
		h.handleOptimize(chatID, p)

	case reMinRisk.MatchString(txt):
		p, err := ParseSessionArgs(txt, h.session.Defaults)
		if err != nil {
			h.reply(chatID, "Invalid arguments: "+err.Error()+"\nUsage: /minrisk [capital]")
			return
		}
		h.handleStrategy(chatID, p, false)

	case reTarget.MatchString(txt):
		p, err := ParseSessionArgs(txt, h.session.Defaults)
		if err != nil {
			h.reply(chatID, "Invalid arguments: "+err.Error()+"\nUsage: /target [capital] [target%]")
			return
		}
		h.handleStrategy(chatID, p, true)

	case reFrontier.MatchString(txt):
		h.handleFrontier(chatID)

	case reBacktest.MatchString(txt):
		split, p, err := ParseBacktestArgs(txt, h.session.Defaults, h.session.Start, h.session.End)
		if err != nil {
			h.reply(chatID, "Invalid arguments: "+err.Error())
			return
		}
		h.handleBacktest(chatID, split, p)

	case reHelp.MatchString(txt):
		h.handleHelp(chatID)
	}
}

func (h *Handlers) run(chatID int64, p engine.Params) (*engine.Result, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
	defer cancel()
	res, err := engine.Run(ctx, h.session.Fetcher, h.session.request(p))
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Warn("telegram: session failed")
		h.reply(chatID, "Optimization failed: "+err.Error())
		return nil, false
	}
	return res, true
}

func (h *Handlers) handleOptimize(chatID int64, p engine.Params) {
	h.reply(chatID, fmt.Sprintf("Optimizing %d assets…", len(h.session.Tickers)))
	res, ok := h.run(chatID, p)
	if !ok {
		return
	}
	text := res.Summary() + "\n" + res.MinRisk.Table.Text() + "\n" + res.Target.Table.Text()
	h.replyPre(chatID, text)
	h.sendChart(chatID, res.Target, true)
	h.sendCommentary(chatID, res.Summary())
}

func (h *Handlers) handleStrategy(chatID int64, p engine.Params, target bool) {
	res, ok := h.run(chatID, p)
	if !ok {
		return
	}
	s := res.MinRisk
	if target {
		s = res.Target
	}
	text := s.Summary()
	if target {
		text += fmt.Sprintf("Sum of weights: %.4f\nRequired investment: $%s\n",
			s.Solution.Sum, s.RequiredInvestment.StringFixed(2))
	}
	h.replyPre(chatID, text+"\n"+s.Table.Text())
	h.sendChart(chatID, s, target)
}

func (h *Handlers) handleFrontier(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
	defer cancel()
	points, err := engine.Frontier(ctx, h.session.Fetcher, h.session.request(h.session.Defaults), nil)
	if err != nil {
		h.reply(chatID, "Frontier failed: "+err.Error())
		return
	}
	var b strings.Builder
	b.WriteString("Target   Return   Vol     Sharpe  Sum\n")
	for _, pt := range points {
		fmt.Fprintf(&b, "%5.1f%%  %6.2f%%  %6.2f%%  %6.2f  %.3f\n",
			pt.TargetAnnualPct, pt.Return*100, pt.Volatility*100, pt.Sharpe, pt.Sum)
	}
	h.replyPre(chatID, b.String())
	img, err := markowitz.FrontierChart(points)
	if err != nil {
		logrus.WithError(err).Warn("telegram: frontier chart failed")
		return
	}
	h.sendPhoto(chatID, "frontier.png", img, "Target-return sweep")
}

func (h *Handlers) handleBacktest(chatID int64, split time.Time, p engine.Params) {
	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
	defer cancel()
	res, err := engine.Backtest(ctx, h.session.Fetcher, engine.BacktestRequest{
		Tickers:    h.session.Tickers,
		TrainStart: h.session.Start,
		TrainEnd:   split,
		TestEnd:    h.session.End,
		Params:     p,
	})
	if err != nil {
		h.reply(chatID, "Backtest failed: "+err.Error())
		return
	}
	h.replyPre(chatID, res.Summary())
	img, err := res.Chart()
	if err != nil {
		logrus.WithError(err).Warn("telegram: backtest chart failed")
		return
	}
	h.sendPhoto(chatID, "backtest.png", img, "Buy and hold from "+split.Format("2006-01-02"))
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /optimize [capital] [target%] - Minimum-risk and target-return portfolios\n" +
		"- /minrisk [capital] - Minimum-risk weights only\n" +
		"- /target [capital] [target%] - Target-return weights and required investment\n" +
		"- /frontier - Sweep target returns from 1% to 30%\n" +
		"- /backtest YYYY-MM-DD [target%] - Fit before the date, test after it\n" +
		fmt.Sprintf("\nAssets: %s\nWindow: %s to %s. Capital must be at least $%.0f, target between %.1f%% and %.1f%%.",
			strings.Join(h.session.Tickers, ", "),
			h.session.Start.Format("2006-01-02"), h.session.End.Format("2006-01-02"),
			engine.MinCapital, engine.MinTargetPct, engine.MaxTargetPct)
	h.reply(chatID, help)
}

func (h *Handlers) sendChart(chatID int64, s engine.Strategy, byInvestment bool) {
	img, err := s.Table.BarChart(s.Name, byInvestment)
	if err != nil {
		logrus.WithError(err).WithField("strategy", s.Name).Warn("telegram: allocation chart failed")
		return
	}
	name := strings.ToLower(strings.ReplaceAll(s.Name, " ", "_"))
	h.sendPhoto(chatID, name+".png", img, s.Name)
}

func (h *Handlers) sendCommentary(chatID int64, summary string) {
	if h.comment == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()
	out, err := h.comment.Comment(ctx, summary)
	if err != nil {
		logrus.WithError(err).Warn("telegram: commentary failed")
		return
	}
	h.reply(chatID, out)
}

func (h *Handlers) sendPhoto(chatID int64, name string, img []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: img})
	photo.Caption = caption
	if _, err := h.api.Send(photo); err != nil {
		logrus.WithError(err).Warn("telegram: send photo failed")
	}
}

// replyPre sends text as a monospace block so tables stay aligned.
func (h *Handlers) replyPre(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "```\n"+strings.ReplaceAll(text, "```", "'''")+"\n```")
	msg.ParseMode = "Markdown"
	if _, err := h.api.Send(msg); err != nil {
		logrus.WithError(err).Warn("telegram: send failed")
	}
}

func (h *Handlers) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logrus.WithError(err).Warn("telegram: send failed")
	}
}
