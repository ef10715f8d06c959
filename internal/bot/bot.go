// Package bot implements the Telegram companion client. The bot never has
// its own account system: a chat gets access by redeeming a link code minted
// by the web client, after which it acts on the same progress records.
package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/swipevocab/internal/auth"
	"github.com/example/swipevocab/internal/database"
	"github.com/example/swipevocab/internal/linkcode"
	"github.com/example/swipevocab/internal/review"
	"github.com/example/swipevocab/internal/spaced_repetition"
	"github.com/example/swipevocab/pkg/models"
)

// Constants for callback data
const (
	callbackReviewPrefix = "review:"
	callbackFinishPrefix = "finish:"
	callbackLearnKnown   = "learn:known"
	callbackLearnUnknown = "learn:unknown"
	callbackLearnSkip    = "learn:skip"
	callbackLearnReset   = "learn:reset"
)

// reviewSession holds the due queue a chat is currently working through
type reviewSession struct {
	WordIDs    []int
	CurrentIdx int
	StartedAt  time.Time
}

// chatDeck pairs a swipe deck with its own lock. Updates are handled in a
// goroutine per update, and review.Session is not safe for concurrent use,
// so every deck read or mutation happens under mu.
type chatDeck struct {
	mu       sync.Mutex
	deck     *review.Session
	hydrated bool
}

// Bot represents the Telegram bot application
type Bot struct {
	api      *tgbotapi.BotAPI
	token    string
	jwt      *auth.JWTService
	codes    *linkcode.Store
	users    *database.UserRepository
	words    *database.WordRepository
	progress *database.ProgressRepository

	mu       sync.Mutex
	links    map[int64]string // chat ID -> linked user ID
	sessions map[int64]reviewSession
	decks    map[int64]*chatDeck // swipe decks over the full catalog
}

// New creates a new bot instance
func New(
	token string,
	jwtService *auth.JWTService,
	codes *linkcode.Store,
	users *database.UserRepository,
	words *database.WordRepository,
	progress *database.ProgressRepository,
) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}
	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	return &Bot{
		token:    token,
		jwt:      jwtService,
		codes:    codes,
		users:    users,
		words:    words,
		progress: progress,
		links:    make(map[int64]string),
		sessions: make(map[int64]reviewSession),
		decks:    make(map[int64]*chatDeck),
	}, nil
}

// Start connects to Telegram and processes updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %v", err)
	}
	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		go b.handleUpdate(update)
	}
	log.Println("Bot stopped")
	return nil
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil && update.Message.IsCommand() {
		switch update.Message.Command() {
		case "start":
			b.handleStart(update.Message)
		case "link":
			b.handleLink(update.Message, strings.TrimSpace(update.Message.CommandArguments()))
		case "review":
			b.handleReview(update.Message.Chat.ID)
		case "learn":
			b.handleLearn(update.Message.Chat.ID)
		case "stats":
			b.handleStats(update.Message.Chat.ID)
		case "unlink":
			b.handleUnlink(update.Message.Chat.ID)
		case "help":
			b.handleHelp(update.Message.Chat.ID)
		default:
			b.send(update.Message.Chat.ID, "Неизвестная команда. Используйте /help для списка команд.")
		}
		return
	}
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

// handleStart greets the chat. A deep-link payload (t.me/bot?start=CODE)
// carries a link code and is treated as /link CODE.
func (b *Bot) handleStart(message *tgbotapi.Message) {
	payload := strings.TrimSpace(message.CommandArguments())
	if payload != "" {
		b.handleLink(message, payload)
		return
	}

	welcomeText := `Привет! Я помогу повторять слова. 🎓

Чтобы подключить аккаунт, откройте веб-приложение, запросите код привязки и отправьте мне:
/link КОД

Команды:
/learn - листать каталог слов
/review - повторить слова
/stats - статистика
/help - помощь`
	b.send(message.Chat.ID, welcomeText)
}

func (b *Bot) handleHelp(chatID int64) {
	b.send(chatID, `Команды:
/link КОД - привязать аккаунт по коду из веб-приложения
/learn - листать каталог: свайпы "знаю" / "не знаю"
/review - повторить слова, у которых подошел срок
/stats - ваша статистика
/unlink - отвязать аккаунт`)
}

// handleLink redeems a link code and binds this chat to the account behind it
func (b *Bot) handleLink(message *tgbotapi.Message, code string) {
	chatID := message.Chat.ID
	if code == "" {
		b.send(chatID, "Укажите код: /link КОД")
		return
	}

	token, err := b.codes.Exchange(code)
	if err == linkcode.ErrExpired {
		b.send(chatID, "⏰ Код истек. Запросите новый в веб-приложении.")
		return
	}
	if err != nil {
		b.send(chatID, "Код не найден или уже использован.")
		return
	}

	userID, err := b.jwt.ValidateToken(token)
	if err != nil {
		log.Printf("Link code carried an invalid token: %v", err)
		b.send(chatID, "Код не найден или уже использован.")
		return
	}

	user, err := b.users.GetByID(userID)
	if err != nil {
		log.Printf("Failed to load linked user %s: %v", userID, err)
		b.send(chatID, "Не удалось привязать аккаунт. Попробуйте еще раз.")
		return
	}

	b.mu.Lock()
	b.links[chatID] = user.ID
	delete(b.sessions, chatID)
	delete(b.decks, chatID)
	b.mu.Unlock()

	b.send(chatID, fmt.Sprintf("✅ Аккаунт %s привязан! Отправьте /review, чтобы начать повторение.", user.Email))
}

func (b *Bot) handleUnlink(chatID int64) {
	b.mu.Lock()
	_, linked := b.links[chatID]
	delete(b.links, chatID)
	delete(b.sessions, chatID)
	delete(b.decks, chatID)
	b.mu.Unlock()

	if linked {
		b.send(chatID, "Аккаунт отвязан.")
	} else {
		b.send(chatID, "Аккаунт не был привязан.")
	}
}

// linkedUser returns the user id bound to the chat, messaging the chat when
// there is none.
func (b *Bot) linkedUser(chatID int64) (string, bool) {
	b.mu.Lock()
	userID, ok := b.links[chatID]
	b.mu.Unlock()
	if !ok {
		b.send(chatID, "Сначала привяжите аккаунт: /link КОД (код выдает веб-приложение).")
	}
	return userID, ok
}

// handleReview starts a review run over the words due right now
func (b *Bot) handleReview(chatID int64) {
	userID, ok := b.linkedUser(chatID)
	if !ok {
		return
	}

	due, err := b.progress.ListDue(userID, time.Now())
	if err != nil {
		log.Printf("Failed to list due words for user %s: %v", userID, err)
		b.send(chatID, "Не удалось загрузить слова. Попробуйте позже.")
		return
	}
	if len(due) == 0 {
		b.send(chatID, "🎉 Все повторено! Новых слов к повторению пока нет.")
		return
	}

	wordIDs := make([]int, len(due))
	for i, record := range due {
		wordIDs[i] = record.WordID
	}

	b.mu.Lock()
	b.sessions[chatID] = reviewSession{WordIDs: wordIDs, StartedAt: time.Now()}
	b.mu.Unlock()

	b.send(chatID, fmt.Sprintf("К повторению: %d %s.", len(due), wordForm(len(due))))
	b.showCurrentWord(chatID)
}

// showCurrentWord sends the current word of the session with decision buttons
func (b *Bot) showCurrentWord(chatID int64) {
	b.mu.Lock()
	session, exists := b.sessions[chatID]
	b.mu.Unlock()
	if !exists {
		return
	}

	if session.CurrentIdx >= len(session.WordIDs) {
		b.mu.Lock()
		delete(b.sessions, chatID)
		b.mu.Unlock()
		b.send(chatID, "🎉 Сессия завершена! Все слова повторены.")
		return
	}

	wordID := session.WordIDs[session.CurrentIdx]
	word, err := b.words.GetByID(wordID)
	if err != nil {
		// Слово могло быть удалено из каталога - пропускаем
		log.Printf("Failed to load word %d: %v", wordID, err)
		b.advanceSession(chatID)
		b.showCurrentWord(chatID)
		return
	}

	text := fmt.Sprintf("*%s*", word.Word)
	if word.Pos != "" {
		text += fmt.Sprintf(" _(%s)_", word.Pos)
	}
	text += fmt.Sprintf("\n%s", word.Translation)
	text += fmt.Sprintf("\n\nСлово %d из %d", session.CurrentIdx+1, len(session.WordIDs))

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Знаю", fmt.Sprintf("%s%d:known", callbackReviewPrefix, wordID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Не знаю", fmt.Sprintf("%s%d:unknown", callbackReviewPrefix, wordID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏁 Выучено, больше не показывать", fmt.Sprintf("%s%d", callbackFinishPrefix, wordID)),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send word to chat %d: %v", chatID, err)
	}
}

func (b *Bot) advanceSession(chatID int64) {
	b.mu.Lock()
	if session, exists := b.sessions[chatID]; exists {
		session.CurrentIdx++
		b.sessions[chatID] = session
	}
	b.mu.Unlock()
}

// handleCallbackQuery handles the decision buttons under a review card
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID
	data := query.Data

	// Telegram requires answering the callback to clear the spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("Failed to answer callback: %v", err)
	}

	userID, ok := b.linkedUser(chatID)
	if !ok {
		return
	}

	switch {
	case strings.HasPrefix(data, "learn:"):
		b.handleDeckAction(chatID, userID, data)

	case strings.HasPrefix(data, callbackReviewPrefix):
		parts := strings.Split(strings.TrimPrefix(data, callbackReviewPrefix), ":")
		if len(parts) != 2 {
			return
		}
		wordID, err := strconv.Atoi(parts[0])
		if err != nil {
			return
		}
		known := parts[1] == "known"
		b.recordDecision(chatID, userID, wordID, known)

	case strings.HasPrefix(data, callbackFinishPrefix):
		wordID, err := strconv.Atoi(strings.TrimPrefix(data, callbackFinishPrefix))
		if err != nil {
			return
		}
		if err := b.progress.Remove(userID, wordID); err != nil {
			log.Printf("Failed to remove word %d for user %s: %v", wordID, userID, err)
		}
		b.advanceSession(chatID)
		b.showCurrentWord(chatID)
	}
}

// applyDecision records one known/unknown answer against the progress store.
// classify controls the stored status: deck swipes classify the word, review
// answers only reschedule it - a reviewed word stays in the due rotation and
// comes back at its computed interval; mastery is a separate explicit action.
func (b *Bot) applyDecision(userID string, wordID int, known, classify bool) error {
	quality := spaced_repetition.QualityForDecision(known)
	var status models.WordStatus
	if classify {
		status = models.WordStatusUnknown
		if known {
			status = models.WordStatusKnown
		}
	}

	_, err := b.progress.RecordReview(userID, wordID, quality, status)
	if err == database.ErrNotFound {
		// Записи еще нет (или удалена с другого клиента) - создаем
		createStatus := status
		if createStatus == "" {
			createStatus = models.WordStatusUnknown
		}
		_, err = b.progress.Add(userID, wordID, createStatus, quality)
	}
	return err
}

// recordDecision applies one review answer and shows the next word
func (b *Bot) recordDecision(chatID int64, userID string, wordID int, known bool) {
	if err := b.applyDecision(userID, wordID, known, false); err != nil {
		log.Printf("Failed to record review for user %s word %d: %v", userID, wordID, err)
		b.send(chatID, "Не удалось сохранить ответ. Попробуйте позже.")
		return
	}

	b.advanceSession(chatID)
	b.showCurrentWord(chatID)
}

// handleLearn starts or resumes a swipe run over the whole catalog. The deck
// is seeded from the server-side progress on first use, so a chat picks up
// where the web client left off.
func (b *Bot) handleLearn(chatID int64) {
	userID, ok := b.linkedUser(chatID)
	if !ok {
		return
	}

	catalog, err := b.words.GetAll()
	if err != nil {
		log.Printf("Failed to load catalog: %v", err)
		b.send(chatID, "Не удалось загрузить каталог слов.")
		return
	}
	if len(catalog) == 0 {
		b.send(chatID, "Каталог слов пуст.")
		return
	}

	b.mu.Lock()
	cd, exists := b.decks[chatID]
	if !exists {
		cd = &chatDeck{deck: review.NewSession()}
		b.decks[chatID] = cd
	}
	b.mu.Unlock()

	cd.mu.Lock()
	if !cd.hydrated {
		if err := b.hydrateDeck(cd.deck, userID, catalog); err != nil {
			cd.mu.Unlock()
			log.Printf("Failed to hydrate deck for user %s: %v", userID, err)
			b.send(chatID, "Не удалось загрузить прогресс.")
			return
		}
		cd.hydrated = true
	}
	cd.deck.EnsureSession(len(catalog))
	cd.mu.Unlock()

	b.showDeckCard(chatID, cd, catalog)
}

// hydrateDeck pulls the server-side known/unknown sets into a fresh deck.
// Word ids are translated to positions in the id-ordered catalog.
func (b *Bot) hydrateDeck(deck *review.Session, userID string, catalog []models.Word) error {
	records, err := b.progress.ListByUser(userID)
	if err != nil {
		return err
	}

	indexByWordID := make(map[int]int, len(catalog))
	for i, word := range catalog {
		indexByWordID[word.ID] = i
	}

	var knownIndexes, unknownIndexes []int
	for _, record := range records {
		idx, ok := indexByWordID[record.WordID]
		if !ok {
			continue
		}
		if record.Status == models.WordStatusKnown {
			knownIndexes = append(knownIndexes, idx)
		} else {
			unknownIndexes = append(unknownIndexes, idx)
		}
	}

	deck.Hydrate(knownIndexes, unknownIndexes, len(catalog))
	return nil
}

// showDeckCard sends the word under the deck cursor with swipe buttons
func (b *Bot) showDeckCard(chatID int64, cd *chatDeck, catalog []models.Word) {
	cd.mu.Lock()
	idx, ok := cd.deck.Current()
	cd.mu.Unlock()

	if !ok || idx >= len(catalog) {
		msg := tgbotapi.NewMessage(chatID, "🎉 Колода закончилась! Все слова разобраны.")
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔄 Начать заново", callbackLearnReset),
			),
		)
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("Failed to send deck end to chat %d: %v", chatID, err)
		}
		return
	}

	word := catalog[idx]
	text := fmt.Sprintf("*%s*", word.Word)
	if word.Pos != "" {
		text += fmt.Sprintf(" _(%s)_", word.Pos)
	}
	if word.Level != "" {
		text += fmt.Sprintf(" %s", word.Level)
	}
	text += fmt.Sprintf("\n%s", word.Translation)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Знаю", callbackLearnKnown),
			tgbotapi.NewInlineKeyboardButtonData("❌ Не знаю", callbackLearnUnknown),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏭ Пропустить", callbackLearnSkip),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send deck card to chat %d: %v", chatID, err)
	}
}

// deckAction performs one swipe/skip/reset against the deck, holding its
// lock across the whole read-decide-mutate step. A deck swipe classifies the
// word, so the decision goes through applyDecision with classify=true.
func (b *Bot) deckAction(cd *chatDeck, userID, action string, catalog []models.Word) error {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	switch action {
	case callbackLearnKnown, callbackLearnUnknown:
		idx, ok := cd.deck.Current()
		if !ok || idx >= len(catalog) {
			return nil
		}
		known := action == callbackLearnKnown
		// Сохраняем решение на сервере до сдвига колоды
		if err := b.applyDecision(userID, catalog[idx].ID, known, true); err != nil {
			return err
		}
		decision := review.DecisionUnknown
		if known {
			decision = review.DecisionKnown
		}
		cd.deck.Swipe(decision, len(catalog))

	case callbackLearnSkip:
		cd.deck.Skip(len(catalog))

	case callbackLearnReset:
		cd.deck.Reset(len(catalog))
	}
	return nil
}

// handleDeckAction applies a swipe/skip/reset to the chat's deck
func (b *Bot) handleDeckAction(chatID int64, userID, action string) {
	catalog, err := b.words.GetAll()
	if err != nil {
		log.Printf("Failed to load catalog: %v", err)
		b.send(chatID, "Не удалось загрузить каталог слов.")
		return
	}

	b.mu.Lock()
	cd, exists := b.decks[chatID]
	b.mu.Unlock()
	if !exists || len(catalog) == 0 {
		b.send(chatID, "Нет активной колоды. Отправьте /learn, чтобы начать.")
		return
	}

	if err := b.deckAction(cd, userID, action, catalog); err != nil {
		log.Printf("Failed to save decision for user %s: %v", userID, err)
		b.send(chatID, "Не удалось сохранить ответ. Попробуйте позже.")
		return
	}

	b.showDeckCard(chatID, cd, catalog)
}

// handleStats reports the user's progress counts
func (b *Bot) handleStats(chatID int64) {
	userID, ok := b.linkedUser(chatID)
	if !ok {
		return
	}

	records, err := b.progress.ListByUser(userID)
	if err != nil {
		log.Printf("Failed to load stats for user %s: %v", userID, err)
		b.send(chatID, "Не удалось загрузить статистику.")
		return
	}
	due, err := b.progress.ListDue(userID, time.Now())
	if err != nil {
		log.Printf("Failed to load due words for user %s: %v", userID, err)
		b.send(chatID, "Не удалось загрузить статистику.")
		return
	}

	known := 0
	for _, record := range records {
		if record.Status == models.WordStatusKnown {
			known++
		}
	}

	b.send(chatID, fmt.Sprintf(`📊 Ваша статистика:

Всего слов в работе: %d
Выучено: %d
Ждут повторения сейчас: %d`, len(records), known, len(due)))
}

// Notify implements the scheduler notifier: it pings every chat linked to
// the user about words waiting for review.
func (b *Bot) Notify(userID string, count int) error {
	b.mu.Lock()
	var chatIDs []int64
	for chatID, linked := range b.links {
		if linked == userID {
			chatIDs = append(chatIDs, chatID)
		}
	}
	b.mu.Unlock()

	if len(chatIDs) == 0 {
		return nil
	}

	text := fmt.Sprintf("⏰ У вас %d %s для повторения! Отправьте /review, чтобы начать.", count, wordForm(count))
	for _, chatID := range chatIDs {
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			log.Printf("Error sending reminder to chat %d: %v", chatID, err)
			return err
		}
	}
	return nil
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message to chat %d: %v", chatID, err)
	}
}

// wordForm picks the Russian plural form for "слово"
func wordForm(count int) string {
	switch {
	case count%10 == 1 && count%100 != 11:
		return "слово"
	case count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20):
		return "слова"
	default:
		return "слов"
	}
}
