package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"memealerts-eventplane/pkg/config"
	"memealerts-eventplane/pkg/errutil"
	"memealerts-eventplane/pkg/event"
	"memealerts-eventplane/pkg/provider"
	"memealerts-eventplane/services/channel"
	"memealerts-eventplane/services/command"
	"memealerts-eventplane/services/reward"
	"memealerts-eventplane/services/wallet"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ingest response statuses. Duplicates and business rejections answer 200
// like accepted events: an error status would only provoke provider retry
// storms that cannot change the outcome.
const (
	ResultAccepted    = "accepted"
	ResultDuplicate   = "duplicate"
	ResultIgnored     = "ignored"
	ResultUnparseable = "unparseable"
)

type providerSpec struct {
	name      string
	idHeader  string
	tsHeader  string
	sigHeader string
	verifier  Verifier
	normalize Normalizer
	// challenge serves the provider's subscription verification handshake.
	// Runs before signature enforcement; reports whether it handled the
	// request.
	challenge func(c *gin.Context, body []byte) bool
}

type Service struct {
	db       *gorm.DB
	gate     *Gate
	channels *channel.Service
	rewards  *reward.Service
	commands *command.Service
	wallets  *wallet.Service
	notifier wallet.Notifier
	outbox   command.Outbox

	specs map[string]*providerSpec
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Config   *config.Config
	Gate     *Gate
	Channels *channel.Service
	Rewards  *reward.Service
	Commands *command.Service
	Wallets  *wallet.Service
	Notifier wallet.Notifier
	Outbox   command.Outbox
}

func NewService(p ServiceParams) *Service {
	window := p.Config.Webhook.ReplayWindow

	providers := p.Config.Providers
	specs := map[string]*providerSpec{
		provider.Twitch: {
			name:      provider.Twitch,
			idHeader:  "Twitch-Eventsub-Message-Id",
			tsHeader:  "Twitch-Eventsub-Message-Timestamp",
			sigHeader: "Twitch-Eventsub-Message-Signature",
			verifier:  NewHMACVerifier(providers[provider.Twitch].WebhookSecret, window),
			normalize: NormalizeTwitch,
			challenge: twitchChallenge,
		},
		provider.Kick: {
			name:      provider.Kick,
			idHeader:  "Kick-Event-Message-Id",
			tsHeader:  "Kick-Event-Message-Timestamp",
			sigHeader: "Kick-Event-Signature",
			verifier:  NewRSAVerifier(NewCachedKeySource(providers[provider.Kick].PublicKeyURL), window),
			normalize: NormalizeKick,
		},
		provider.VKVideo: {
			name:      provider.VKVideo,
			idHeader:  "X-VK-Message-Id",
			tsHeader:  "X-VK-Timestamp",
			sigHeader: "X-VK-Signature",
			verifier:  NewHMACVerifier(providers[provider.VKVideo].WebhookSecret, window),
			normalize: NormalizeVKVideo,
			challenge: vkChallenge,
		},
		provider.Trovo: {
			name:      provider.Trovo,
			idHeader:  "Trovo-Message-Id",
			tsHeader:  "Trovo-Message-Timestamp",
			sigHeader: "Trovo-Signature",
			verifier:  NewHMACVerifier(providers[provider.Trovo].WebhookSecret, window),
			normalize: NormalizeTrovo,
		},
	}

	return &Service{
		db:       p.DB,
		gate:     p.Gate,
		channels: p.Channels,
		rewards:  p.Rewards,
		commands: p.Commands,
		wallets:  p.Wallets,
		notifier: p.Notifier,
		outbox:   p.Outbox,
		specs:    specs,
	}
}

func (s *Service) RegisterRoutes(r *gin.Engine) {
	hooks := r.Group("/webhooks")
	for name, spec := range s.specs {
		hooks.POST("/"+name, func(c *gin.Context) { s.handleWebhook(c, spec) })
	}

	r.POST("/accounts/link", s.handleLink)
	r.POST("/channels/:id/say", s.handleSay)
}

func (s *Service) handleWebhook(c *gin.Context, spec *providerSpec) {
	// The signature covers the exact bytes on the wire, so the body must be
	// captured before any JSON parsing.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if spec.challenge != nil && spec.challenge(c, body) {
		return
	}

	messageID := c.GetHeader(spec.idHeader)
	timestamp := c.GetHeader(spec.tsHeader)
	signature := c.GetHeader(spec.sigHeader)
	if messageID == "" || timestamp == "" || signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing signature headers"})
		return
	}

	if err := spec.verifier.Verify(c.Request.Context(), messageID, timestamp, signature, body); err != nil {
		switch {
		case errors.Is(err, ErrBadTimestamp):
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed timestamp"})
		case errors.Is(err, ErrStaleTimestamp), errors.Is(err, ErrBadSignature):
			c.JSON(http.StatusForbidden, gin.H{"error": "signature rejected"})
		default:
			zap.L().Error("signature verification unavailable", zap.String("provider", spec.name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "verification unavailable"})
		}
		return
	}

	result, err := s.ingest(c.Request.Context(), spec, messageID, body)
	if err != nil {
		// Storage trouble: answer 5xx so the provider redelivers. Safe, both
		// idempotency layers swallow the replay.
		zap.L().Error("webhook ingest failed", zap.String("provider", spec.name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": result})
}

func (s *Service) ingest(ctx context.Context, spec *providerSpec, messageID string, body []byte) (string, error) {
	span := trace.SpanFromContext(ctx)
	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("provider", spec.name),
		zap.String("message_id", messageID),
	}

	result := ResultAccepted
	var env *event.Envelope
	var ch *channel.Channel
	var claimed []reward.ClaimedEvent

	err := s.db.Transaction(func(tx *gorm.DB) error {
		fresh, err := s.gate.RegisterTx(ctx, tx, spec.name, messageID)
		if err != nil {
			return err
		}
		if !fresh {
			result = ResultDuplicate
			return nil
		}

		env, _ = spec.normalize(body)
		if env == nil {
			zap.L().With(opts...).Warn("unparseable webhook payload")
			result = ResultUnparseable
			return nil
		}

		ch, err = s.channels.Resolve(ctx, spec.name, env.ChannelRef)
		if err != nil {
			return err
		}

		decision := s.decide(env, ch, opts)

		in := reward.RecordInput{
			Provider:          spec.name,
			ProviderEventID:   env.ProviderEventID,
			ProviderAccountID: env.ActorAccountID,
			EventType:         env.Kind,
			Amount:            env.Amount,
			Decision:          decision,
			EventAt:           env.EventAt,
			RawPayload:        body,
		}
		if ch != nil {
			in.ChannelID = ch.ID
		}
		if env.IsChat() {
			// Chat-activity rewards have no stable platform id and dedup at
			// one per actor per day, so the ledger synthesizes the event id.
			in.ProviderEventID = ""
		}

		rec, err := s.rewards.RecordEventTx(ctx, tx, in)
		if err != nil {
			return err
		}
		claimed = rec.Claimed
		if rec.Created && rec.Event.Status == reward.StatusIgnored && !env.IsChat() {
			result = ResultIgnored
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	// Post-commit side effects only: neither notification delivery nor the
	// chat reply may roll back a committed credit.
	for _, ce := range claimed {
		s.notifier.Notify(ctx, wallet.Update{
			UserID:    ce.UserID,
			ChannelID: ce.ChannelID,
			Provider:  ce.Provider,
			EventID:   ce.EventID,
			Coins:     ce.Coins,
		})
	}

	if env != nil && env.IsChat() && ch != nil {
		if _, err := s.commands.HandleMessage(ctx, ch.ID, ch.Provider, ch.ChatDestination, env); err != nil {
			zap.L().With(opts...).Error("chat command handling failed", zap.Error(err))
		}
	}

	return result, nil
}

// decide evaluates the channel's reward rules. Rule trouble is isolated here:
// a broken configuration turns into an ignored ledger row, never into a
// failed request, so the chat reply path stays unaffected.
func (s *Service) decide(env *event.Envelope, ch *channel.Channel, opts []zap.Field) reward.Decision {
	if ch == nil {
		return reward.Decision{Reason: reward.ReasonChannelNotMapped}
	}

	rules, err := reward.ParseRules(ch.RewardRules)
	if err != nil {
		zap.L().With(opts...).Warn("malformed reward rules", zap.String("channel_id", ch.ID), zap.Error(err))
		return reward.Decision{Reason: reward.ReasonMisconfigured}
	}

	return rules.Evaluate(env, ch.IsLive)
}

type linkRequest struct {
	UserID            string `json:"user_id" binding:"required"`
	Provider          string `json:"provider" binding:"required"`
	ProviderAccountID string `json:"provider_account_id" binding:"required"`
}

// handleLink ties a platform identity to a product account and sweeps every
// reward that arrived before the link existed.
func (s *Service) handleLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid link request", err))
		return
	}
	if !provider.Valid(req.Provider) {
		c.Error(errutil.BadRequest("unknown provider", nil))
		return
	}

	if err := s.wallets.Link(c.Request.Context(), req.UserID, req.Provider, req.ProviderAccountID); err != nil {
		c.Error(err)
		return
	}

	claimed, err := s.rewards.Claim(c.Request.Context(), req.UserID, req.Provider, req.ProviderAccountID)
	if err != nil {
		c.Error(err)
		return
	}

	var total int64
	for _, ce := range claimed {
		total += ce.Coins
		s.notifier.Notify(c.Request.Context(), wallet.Update{
			UserID:    ce.UserID,
			ChannelID: ce.ChannelID,
			Provider:  ce.Provider,
			EventID:   ce.EventID,
			Coins:     ce.Coins,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"credited_events": len(claimed),
		"total_coins":     total,
	})
}

type sayRequest struct {
	Text string `json:"text" binding:"required"`
}

// handleSay enqueues a direct chat message for a channel.
func (s *Service) handleSay(c *gin.Context) {
	var req sayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid say request", err))
		return
	}

	ch, err := s.channels.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	if ch == nil {
		c.Error(errutil.NotFound("channel not found", nil))
		return
	}

	if err := s.outbox.Enqueue(c.Request.Context(), ch.ID, ch.Provider, ch.ChatDestination, req.Text); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func twitchChallenge(c *gin.Context, body []byte) bool {
	if c.GetHeader("Twitch-Eventsub-Message-Type") != "webhook_callback_verification" {
		return false
	}
	m, ok := decode(body)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed challenge"})
		return true
	}
	c.String(http.StatusOK, str(m, "challenge"))
	return true
}

func vkChallenge(c *gin.Context, body []byte) bool {
	m, ok := decode(body)
	if !ok || str(m, "type") != "confirmation" {
		return false
	}
	c.String(http.StatusOK, str(m, "code"))
	return true
}
