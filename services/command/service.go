package command

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"memealerts-eventplane/pkg/event"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// LiveStatusSource supplies the current live/offline snapshot for a channel.
type LiveStatusSource interface {
	IsLive(ctx context.Context, channelID string) (bool, error)
}

// Outbox is the mailbox chat replies are handed to.
type Outbox interface {
	Enqueue(ctx context.Context, channelID, provider, destination, text string) error
}

type Service struct {
	db     *gorm.DB
	cache  *CommandCache
	group  singleflight.Group
	live   LiveStatusSource
	outbox Outbox
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Cache  *CommandCache
	Live   LiveStatusSource
	Outbox Outbox
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		cache:  p.Cache,
		live:   p.Live,
		outbox: p.Outbox,
	}
}

// NormalizeText prepares chat text for trigger matching: trim, collapse CRLF
// into single spaces, lowercase. Matching is exact equality, not substring.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

// HandleMessage matches one chat message against the channel's commands and,
// when a permitted command matches, enqueues its response. Returns whether a
// reply was produced. Offline-gated commands fail silently by design of the
// product: viewers never see an error for them.
func (s *Service) HandleMessage(ctx context.Context, channelID, provider, destination string, env *event.Envelope) (bool, error) {
	set, err := s.commandsFor(ctx, channelID)
	if err != nil {
		return false, err
	}
	if len(set.Commands) == 0 {
		return false, nil
	}

	text := NormalizeText(env.Text)
	if text == "" {
		return false, nil
	}

	for _, cmd := range set.Commands {
		if cmd.TriggerNormalized != text {
			continue
		}

		if !cmd.permits(env.ActorLogin, env.RoleTags) {
			return false, nil
		}

		if cmd.OnlyWhenLive {
			live, err := s.live.IsLive(ctx, channelID)
			if err != nil {
				return false, err
			}
			if !live {
				return false, nil
			}
		}

		if err := s.outbox.Enqueue(ctx, channelID, provider, destination, cmd.Response); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

// Refresh drops the cached command set so the next message reloads it.
func (s *Service) Refresh(channelID string) {
	s.cache.Invalidate(channelID)
}

func (s *Service) commandsFor(ctx context.Context, channelID string) (*CommandSet, error) {
	if set, ok := s.cache.Get(channelID); ok {
		return set, nil
	}

	v, err, _ := s.group.Do(channelID, func() (any, error) {
		var rows []ChatCommand
		if err := s.db.WithContext(ctx).
			Where(&ChatCommand{ChannelID: channelID}).
			Find(&rows).Error; err != nil {
			return nil, err
		}

		set := &CommandSet{
			Commands:  make([]*CompiledCommand, 0, len(rows)),
			UpdatedAt: time.Now(),
		}
		for _, row := range rows {
			set.Commands = append(set.Commands, compile(row))
		}

		s.cache.Set(channelID, set)
		return set, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*CommandSet), nil
}

func compile(row ChatCommand) *CompiledCommand {
	return &CompiledCommand{
		TriggerNormalized: NormalizeText(row.Trigger),
		Response:          row.Response,
		OnlyWhenLive:      row.OnlyWhenLive,
		AllowedLogins:     decodeList(row.AllowedLogins),
		AllowedRoleIDs:    decodeList(row.AllowedRoleIDs),
	}
}

func decodeList(blob []byte) []string {
	if len(blob) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(blob, &out); err != nil {
		zap.L().Warn("malformed permission list on chat command", zap.Error(err))
		return nil
	}
	return out
}

// permits evaluates the command's restrictions, first match wins: explicit
// login allow-list, then platform role-id allow-list, then deny. A command
// with no restriction configured allows everyone.
func (c *CompiledCommand) permits(login string, roleTags []string) bool {
	if len(c.AllowedLogins) == 0 && len(c.AllowedRoleIDs) == 0 {
		return true
	}

	login = strings.ToLower(login)
	for _, allowed := range c.AllowedLogins {
		if strings.ToLower(allowed) == login {
			return true
		}
	}

	for _, allowed := range c.AllowedRoleIDs {
		for _, tag := range roleTags {
			if allowed == tag {
				return true
			}
		}
	}

	return false
}
