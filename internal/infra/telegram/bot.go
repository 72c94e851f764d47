package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrReactionInvalid marks the distinguished "this emoji value is not
// acceptable here" rejection from setMessageReaction.
var ErrReactionInvalid = errors.New("reaction value is not allowed")

// ErrTimeout marks a reaction call that timed out before Telegram answered.
var ErrTimeout = errors.New("telegram request timed out")

type Bot struct {
	api        *tgbotapi.BotAPI
	httpClient *http.Client
}

// MessageUpdate is the subset of an inbound message the pipeline cares
// about. The raw update is decoded here because the typed v5 structs do not
// carry forum-topic fields.
type MessageUpdate struct {
	ChatID       int64
	MessageID    int
	UserID       int64
	Username     string
	DisplayName  string
	Text         string
	Caption      string
	ThreadName   string
	PhotoFileIDs []string
	VideoFileIDs []string
}

func NewBot(token string, callTimeout time.Duration) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{
		api: api,
		httpClient: &http.Client{
			Timeout: callTimeout,
		},
	}, nil
}

// Listen long-polls getUpdates and feeds every inbound chat message to the
// handler. Handler errors are returned and stop the loop.
func (b *Bot) Listen(ctx context.Context, handler func(context.Context, MessageUpdate) error) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if handler == nil {
		return fmt.Errorf("message handler is nil")
	}

	offset := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		updates, err := b.fetchUpdates(offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// transient polling failure, back off briefly and retry
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			if upd.Message == nil || upd.Message.From == nil {
				continue
			}
			if err := handler(ctx, upd.Message.toUpdate()); err != nil {
				return err
			}
		}
	}
}

func (b *Bot) fetchUpdates(offset int) ([]rawUpdate, error) {
	params := tgbotapi.Params{
		"timeout":         "30",
		"allowed_updates": `["message"]`,
	}
	if offset > 0 {
		params["offset"] = strconv.Itoa(offset)
	}

	resp, err := b.api.MakeRequest("getUpdates", params)
	if err != nil {
		return nil, fmt.Errorf("get telegram updates: %w", err)
	}

	var updates []rawUpdate
	if err := json.Unmarshal(resp.Result, &updates); err != nil {
		return nil, fmt.Errorf("decode telegram updates: %w", err)
	}

	return updates, nil
}

// SetReaction applies the given emoji reactions to a message. An empty list
// clears all reactions. The three failure classes the callers depend on are
// kept distinguishable: ErrReactionInvalid, ErrTimeout and everything else.
func (b *Bot) SetReaction(ctx context.Context, chatID int64, messageID int, emojis []string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	reaction := make([]map[string]string, 0, len(emojis))
	for _, emoji := range emojis {
		reaction = append(reaction, map[string]string{"type": "emoji", "emoji": emoji})
	}
	reactionJSON, err := json.Marshal(reaction)
	if err != nil {
		return fmt.Errorf("encode reaction payload: %w", err)
	}

	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("message_id", strconv.Itoa(messageID))
	form.Set("reaction", string(reactionJSON))

	endpoint := fmt.Sprintf(tgbotapi.APIEndpoint, b.api.Token, "setMessageReaction")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create reaction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return ErrTimeout
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("call setMessageReaction: %w", err)
	}
	defer resp.Body.Close()

	var apiResp tgbotapi.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("decode setMessageReaction response: %w", err)
	}
	if apiResp.Ok {
		return nil
	}

	if strings.Contains(strings.ToLower(apiResp.Description), "reaction_invalid") {
		return fmt.Errorf("%w: %s", ErrReactionInvalid, apiResp.Description)
	}

	return fmt.Errorf("setMessageReaction failed: %s", apiResp.Description)
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 || strings.TrimSpace(text) == "" {
		return fmt.Errorf("chat id and text are required")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	return nil
}

// Reply sends text as a reply to a specific message.
func (b *Bot) Reply(ctx context.Context, chatID int64, messageID int, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram reply: %w", err)
	}

	_ = ctx
	return nil
}

// DownloadFile fetches the raw bytes of a Telegram file, used for
// content-hashing and archiving media.
func (b *Bot) DownloadFile(ctx context.Context, fileID string) ([]byte, string, error) {
	if b == nil || b.api == nil {
		return nil, "", fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, "", fmt.Errorf("file id is required")
	}

	tgFile, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("get telegram file: %w", err)
	}

	fileURL := tgFile.Link(b.api.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create file request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download telegram file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected telegram file status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 50<<20))
	if err != nil {
		return nil, "", fmt.Errorf("read telegram file body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	return body, contentType, nil
}
