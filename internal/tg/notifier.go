// Package tg шлёт уведомления о переходах задач в чат менторов.
package tg

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/task-score-service/internal/task"
)

type Notifier struct {
	bot    Sender
	chatID int64
	log    *zap.Logger
}

func NewNotifier(bot Sender, chatID int64, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{bot: bot, chatID: chatID, log: log}
}

// Notify реализует task.Notifier. События без текста молча пропускаются.
func (n *Notifier) Notify(ctx context.Context, ev task.Event) error {
	text := FormatEvent(ev)
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true

	// BotAPI.Send не принимает ctx, поэтому ждём его отдельно
	done := make(chan error, 1)
	go func() {
		_, err := Send(n.bot, msg)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("telegram send: %w", ctx.Err())
	}
	n.log.Debug("notification sent", zap.String("op", string(ev.Op)), zap.Int64("github_issue_id", ev.Task.GithubIssueID))
	return nil
}

func FormatEvent(ev task.Event) string {
	t := ev.Task
	student, _ := t.Student()
	switch ev.Op {
	case task.OpRequestAssign:
		return fmt.Sprintf("🙋 Задача #%d: %s (%s) просит назначить её.\nМентор: %s",
			t.GithubIssueID, student.GithubLogin, student.Name, t.MentorLogin)
	case task.OpRequestComplete:
		return fmt.Sprintf("📬 Задача #%d: %s сообщает о выполнении, нужна проверка.\nМентор: %s",
			t.GithubIssueID, student.GithubLogin, t.MentorLogin)
	case task.OpInternDone:
		if ev.Score == nil {
			return fmt.Sprintf("✅ Задача #%d принята, %s получает %d балл(ов).", t.GithubIssueID, student.GithubLogin, t.Score)
		}
		return fmt.Sprintf("✅ Задача #%d принята, %s получает %d балл(ов).\nБаланс за %s: %d",
			t.GithubIssueID, student.GithubLogin, t.Score, ev.Score.Period(), ev.Score.Balance())
	default:
		return ""
	}
}
