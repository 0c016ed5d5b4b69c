package services

import (
	"encoding/json"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grabberbot/internal/models"
)

// FileRef points at media either as a local file to upload or as a
// platform-issued file ID to re-send. Exactly one field is set.
type FileRef struct {
	Path   string
	FileID string
}

type GroupItem struct {
	Type models.MediaType
	File FileRef
}

// TelegramAPI is the messaging surface the pipeline sends through. Send
// calls return the platform file ID(s) so successful deliveries can be
// cached.
type TelegramAPI interface {
	SendVideo(chatID int64, replyTo int, file FileRef, caption string) (string, error)
	SendPhoto(chatID int64, replyTo int, file FileRef, caption string) (string, error)
	SendMediaGroup(chatID int64, replyTo int, caption string, items []GroupItem) ([]string, error)
	SendText(chatID int64, replyTo int, text string) error
	SendChatAction(chatID int64, action string) error
	// SetMessageReaction sets emoji on the message, or clears all reactions
	// when emoji is empty.
	SetMessageReaction(chatID int64, messageID int, emoji string) error
}

// TelegramClient implements TelegramAPI over the Bot API.
type TelegramClient struct {
	api *tgbotapi.BotAPI
}

func NewTelegramClient(api *tgbotapi.BotAPI) *TelegramClient {
	return &TelegramClient{api: api}
}

func (c *TelegramClient) SendVideo(chatID int64, replyTo int, file FileRef, caption string) (string, error) {
	log.Printf("Sending video to chat %d", chatID)

	cfg := tgbotapi.NewVideo(chatID, file.requestFile())
	cfg.Caption = caption
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.ReplyToMessageID = replyTo

	msg, err := c.api.Send(cfg)
	if err != nil {
		return "", fmt.Errorf("send video: %w", err)
	}
	if msg.Video == nil {
		return "", nil
	}
	return msg.Video.FileID, nil
}

func (c *TelegramClient) SendPhoto(chatID int64, replyTo int, file FileRef, caption string) (string, error) {
	log.Printf("Sending photo to chat %d", chatID)

	cfg := tgbotapi.NewPhoto(chatID, file.requestFile())
	cfg.Caption = caption
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.ReplyToMessageID = replyTo

	msg, err := c.api.Send(cfg)
	if err != nil {
		return "", fmt.Errorf("send photo: %w", err)
	}
	return largestPhotoID(msg.Photo), nil
}

func (c *TelegramClient) SendMediaGroup(chatID int64, replyTo int, caption string, items []GroupItem) ([]string, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("empty media group")
	}
	log.Printf("Sending media group (%d items) to chat %d", len(items), chatID)

	media := make([]interface{}, 0, len(items))
	for i, item := range items {
		switch item.Type {
		case models.MediaTypePhoto:
			m := tgbotapi.NewInputMediaPhoto(item.File.requestFile())
			if i == 0 {
				m.Caption = caption
				m.ParseMode = tgbotapi.ModeHTML
			}
			media = append(media, m)
		default:
			m := tgbotapi.NewInputMediaVideo(item.File.requestFile())
			if i == 0 {
				m.Caption = caption
				m.ParseMode = tgbotapi.ModeHTML
			}
			media = append(media, m)
		}
	}

	cfg := tgbotapi.MediaGroupConfig{
		ChatID:           chatID,
		ReplyToMessageID: replyTo,
		Media:            media,
	}

	msgs, err := c.api.SendMediaGroup(cfg)
	if err != nil {
		return nil, fmt.Errorf("send media group: %w", err)
	}

	fileIDs := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		switch {
		case msg.Video != nil:
			fileIDs = append(fileIDs, msg.Video.FileID)
		case len(msg.Photo) > 0:
			fileIDs = append(fileIDs, largestPhotoID(msg.Photo))
		default:
			fileIDs = append(fileIDs, "")
		}
	}
	return fileIDs, nil
}

func (c *TelegramClient) SendText(chatID int64, replyTo int, text string) error {
	cfg := tgbotapi.NewMessage(chatID, text)
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.ReplyToMessageID = replyTo

	if _, err := c.api.Send(cfg); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

func (c *TelegramClient) SendChatAction(chatID int64, action string) error {
	cfg := tgbotapi.NewChatAction(chatID, action)
	if _, err := c.api.Request(cfg); err != nil {
		return fmt.Errorf("send chat action: %w", err)
	}
	return nil
}

// setMessageReaction postdates the library's typed config surface, so the
// request is assembled by hand.
func (c *TelegramClient) SetMessageReaction(chatID int64, messageID int, emoji string) error {
	params := make(tgbotapi.Params)
	params.AddNonZero64("chat_id", chatID)
	params.AddNonZero("message_id", messageID)

	if emoji != "" {
		reaction, err := json.Marshal([]map[string]string{{"type": "emoji", "emoji": emoji}})
		if err != nil {
			return fmt.Errorf("marshal reaction: %w", err)
		}
		params["reaction"] = string(reaction)
	}

	if _, err := c.api.MakeRequest("setMessageReaction", params); err != nil {
		return fmt.Errorf("set message reaction: %w", err)
	}
	return nil
}

func (f FileRef) requestFile() tgbotapi.RequestFileData {
	if f.FileID != "" {
		return tgbotapi.FileID(f.FileID)
	}
	return tgbotapi.FilePath(f.Path)
}

func largestPhotoID(sizes []tgbotapi.PhotoSize) string {
	if len(sizes) == 0 {
		return ""
	}
	// Bot API orders photo sizes smallest first.
	return sizes[len(sizes)-1].FileID
}
