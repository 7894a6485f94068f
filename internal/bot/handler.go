// Package bot implements the Telegram front-end: command dispatch, the
// interactive edit/delete selection flow, and rendering of replies.
//
// Handler is transport-agnostic — it consumes parsed text, callback tags
// and photo bytes, and returns a Reply (plain text, choice buttons, or a
// document). telegram.go adapts it to the Bot API long-poll loop.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Jayli90/Price-Tracker/internal/barcode"
	"github.com/Jayli90/Price-Tracker/internal/fx"
	"github.com/Jayli90/Price-Tracker/internal/ledger"
	"github.com/Jayli90/Price-Tracker/internal/session"
)

// Choice is one selectable button: a human label and an opaque callback
// tag.
type Choice struct {
	Label string
	Tag   string
}

// Document is a file offered for download.
type Document struct {
	Name string
	Data []byte
}

// Reply is what the transport should render. A zero Reply means "say
// nothing" (used for stale callbacks).
type Reply struct {
	Text     string
	Choices  []Choice
	Document *Document
}

func (r Reply) IsZero() bool {
	return r.Text == "" && len(r.Choices) == 0 && r.Document == nil
}

// Converter turns an amount in one currency into another. Satisfied by
// *fx.Client.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

const entryChoiceLimit = 5

type Handler struct {
	ledger   *ledger.Ledger
	sessions *session.Store
	fx       Converter
	log      zerolog.Logger
}

func NewHandler(l *ledger.Ledger, s *session.Store, converter Converter, log zerolog.Logger) *Handler {
	return &Handler{ledger: l, sessions: s, fx: converter, log: log}
}

const helpText = `I track grocery prices. Commands:

add <item> <price> [currency] <store> — log a price
compare <item> — all logged prices, cheapest first
list — items I know about
delete <item> — remove the latest entry for an item
delete — pick an entry to remove
edit <item> <price> [currency] <store> — fix the latest entry for an item
edit — pick an entry to fix
backup — download the database
cancel — abandon a pending edit/delete

Send me a photo of a barcode and I'll read it for you.`

// ─── Messages ────────────────────────────────────────────────────────────────

// HandleMessage dispatches one text message from a user.
func (h *Handler) HandleMessage(ctx context.Context, userID int64, text string) Reply {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}
	}

	cmd, args := splitCommand(text)

	if cmd == "cancel" {
		h.sessions.Clear(userID)
		return Reply{Text: "Okay, cancelled."}
	}

	// A user mid-edit sends the replacement values as one plain message.
	// A command in its place abandons the edit; the pending state never
	// outlives the next message either way.
	if flow, ok := h.sessions.Get(userID); ok && flow.Step == session.StepReplacement {
		if !strings.HasPrefix(text, "/") {
			return h.applyReplacement(userID, flow, text)
		}
		h.sessions.Clear(userID)
	}

	switch cmd {
	case "start", "help":
		return Reply{Text: helpText}
	case "add":
		return h.handleAdd(ctx, args)
	case "compare":
		return h.handleCompare(args)
	case "list":
		return h.handleList()
	case "delete":
		if len(args) == 0 {
			return h.startFlow(userID, session.ModeDelete)
		}
		return h.handleDeleteMostRecent(args[0])
	case "edit":
		if len(args) == 0 {
			return h.startFlow(userID, session.ModeEdit)
		}
		return h.handleEditMostRecent(args)
	case "backup":
		return h.handleBackup()
	default:
		return Reply{Text: "I don't know that command. Try /help."}
	}
}

func (h *Handler) handleAdd(ctx context.Context, args []string) Reply {
	item, price, currency, store, err := parseEntryArgs(args)
	if err != nil {
		return Reply{Text: err.Error() + "\nUsage: add <item> <price> [currency] <store>"}
	}

	amount, err := decimal.NewFromString(price)
	if err != nil || amount.IsNegative() {
		return Reply{Text: fmt.Sprintf("%q doesn't look like a price.", price)}
	}

	home := h.ledger.HomeCurrency()
	currency = strings.ToUpper(currency)
	if currency == "" {
		currency = home
	}

	// A foreign-currency price must convert cleanly before anything is
	// written; an unresolvable code never reaches the ledger.
	var converted decimal.Decimal
	if currency != home {
		converted, err = h.fx.Convert(ctx, amount, currency, home)
		if err != nil {
			return h.errorReply("convert", err)
		}
	}

	id, err := h.ledger.Add(item, price, currency, store, "")
	if err != nil {
		return h.errorReply("add", err)
	}

	e, err := h.ledger.GetEntry(id)
	if err != nil {
		return h.errorReply("add", err)
	}

	text := fmt.Sprintf("Logged #%d: %s %s %s @ %s", e.ID, e.Item, e.PriceString(), e.Currency, e.Store)
	if currency != home {
		text += fmt.Sprintf(" (≈ %s %s)", converted.StringFixed(2), home)
	}
	return Reply{Text: text}
}

func (h *Handler) handleCompare(args []string) Reply {
	if len(args) != 1 {
		return Reply{Text: "Usage: compare <item>"}
	}

	entries, err := h.ledger.Compare(args[0])
	if err != nil {
		return h.errorReply("compare", err)
	}
	if len(entries) == 0 {
		return Reply{Text: fmt.Sprintf("No prices logged for %q yet.", strings.ToLower(args[0]))}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Prices for %s:\n", entries[0].Item)
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s @ %s on %s\n", e.PriceString(), e.Currency, e.Store, e.Date)
	}
	return Reply{Text: strings.TrimRight(b.String(), "\n")}
}

func (h *Handler) handleList() Reply {
	items, err := h.ledger.DistinctItems()
	if err != nil {
		return h.errorReply("list", err)
	}
	if len(items) == 0 {
		return Reply{Text: "The ledger is empty. Log something with add."}
	}
	return Reply{Text: "Items:\n" + strings.Join(items, "\n")}
}

func (h *Handler) handleDeleteMostRecent(item string) Reply {
	e, err := h.ledger.DeleteMostRecent(item)
	if err != nil {
		return h.errorReply("delete", err)
	}
	return Reply{Text: fmt.Sprintf("Deleted #%d: %s %s %s @ %s", e.ID, e.Item, e.PriceString(), e.Currency, e.Store)}
}

func (h *Handler) handleEditMostRecent(args []string) Reply {
	item, price, currency, store, err := parseEntryArgs(args)
	if err != nil {
		return Reply{Text: err.Error() + "\nUsage: edit <item> <price> [currency] <store>"}
	}

	entries, err := h.ledger.RecentEntries(item, 1)
	if err != nil {
		return h.errorReply("edit", err)
	}
	if len(entries) == 0 {
		return Reply{Text: fmt.Sprintf("No prices logged for %q yet.", strings.ToLower(item))}
	}

	id := entries[0].ID
	if err := h.ledger.UpdateByID(id, item, price, currency, store, ""); err != nil {
		return h.errorReply("edit", err)
	}

	e, err := h.ledger.GetEntry(id)
	if err != nil {
		return h.errorReply("edit", err)
	}
	return Reply{Text: fmt.Sprintf("Updated #%d: %s %s %s @ %s", e.ID, e.Item, e.PriceString(), e.Currency, e.Store)}
}

func (h *Handler) handleBackup() Reply {
	data, err := h.ledger.ExportRaw()
	if err != nil {
		return h.errorReply("backup", err)
	}
	return Reply{
		Text:     fmt.Sprintf("Here is the database (%d bytes).", len(data)),
		Document: &Document{Name: "prices.db", Data: data},
	}
}

// ─── Selection flow ──────────────────────────────────────────────────────────

func (h *Handler) startFlow(userID int64, mode session.Mode) Reply {
	items, err := h.ledger.DistinctItems()
	if err != nil {
		return h.errorReply("start flow", err)
	}
	if len(items) == 0 {
		return Reply{Text: "The ledger is empty, nothing to do."}
	}

	h.sessions.Set(userID, session.Flow{Mode: mode, Step: session.StepItem})

	choices := make([]Choice, 0, len(items))
	for _, item := range items {
		choices = append(choices, Choice{Label: item, Tag: "item:" + item})
	}

	verb := "edit"
	if mode == session.ModeDelete {
		verb = "delete"
	}
	return Reply{Text: fmt.Sprintf("Which item do you want to %s?", verb), Choices: choices}
}

// HandleCallback dispatches one button press. Presses with no matching
// pending flow — stale keyboards, replays — are silently ignored.
func (h *Handler) HandleCallback(ctx context.Context, userID int64, tag string) Reply {
	flow, ok := h.sessions.Get(userID)
	if !ok {
		return Reply{}
	}

	switch {
	case strings.HasPrefix(tag, "item:"):
		if flow.Step != session.StepItem {
			return Reply{}
		}
		return h.pickItem(userID, flow, strings.TrimPrefix(tag, "item:"))

	case strings.HasPrefix(tag, "entry:"):
		if flow.Step != session.StepEntry {
			return Reply{}
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(tag, "entry:"), 10, 64)
		if err != nil {
			return Reply{}
		}
		return h.pickEntry(userID, flow, id)
	}
	return Reply{}
}

func (h *Handler) pickItem(userID int64, flow session.Flow, item string) Reply {
	entries, err := h.ledger.RecentEntries(item, entryChoiceLimit)
	if err != nil {
		h.sessions.Clear(userID)
		return h.errorReply("pick item", err)
	}
	if len(entries) == 0 {
		h.sessions.Clear(userID)
		return Reply{Text: fmt.Sprintf("No entries left for %q.", item)}
	}

	flow.Step = session.StepEntry
	flow.Item = item
	h.sessions.Set(userID, flow)

	choices := make([]Choice, 0, len(entries))
	for _, e := range entries {
		label := fmt.Sprintf("#%d %s %s @ %s on %s", e.ID, e.PriceString(), e.Currency, e.Store, e.Date)
		choices = append(choices, Choice{Label: label, Tag: fmt.Sprintf("entry:%d", e.ID)})
	}
	return Reply{Text: fmt.Sprintf("Which entry for %s?", item), Choices: choices}
}

func (h *Handler) pickEntry(userID int64, flow session.Flow, id int64) Reply {
	if flow.Mode == session.ModeDelete {
		h.sessions.Clear(userID)
		found, err := h.ledger.DeleteByID(id)
		if err != nil {
			return h.errorReply("delete entry", err)
		}
		if !found {
			return Reply{Text: "That entry is already gone."}
		}
		return Reply{Text: fmt.Sprintf("Deleted entry #%d.", id)}
	}

	flow.Step = session.StepReplacement
	flow.EntryID = id
	h.sessions.Set(userID, flow)
	return Reply{Text: fmt.Sprintf("Editing #%d. Send the new values as:\n<item> <price> [currency] <store>", id)}
}

// applyReplacement consumes the one free-text message an edit flow
// waits for. The pending state is cleared no matter how parsing goes;
// a failed parse means starting over with /edit.
func (h *Handler) applyReplacement(userID int64, flow session.Flow, text string) Reply {
	h.sessions.Clear(userID)

	item, price, currency, store, err := parseEntryArgs(strings.Fields(text))
	if err != nil {
		return Reply{Text: err.Error() + "\nEdit abandoned — start again with /edit."}
	}

	if err := h.ledger.UpdateByID(flow.EntryID, item, price, currency, store, ""); err != nil {
		return h.errorReply("apply edit", err)
	}

	e, err := h.ledger.GetEntry(flow.EntryID)
	if err != nil {
		return h.errorReply("apply edit", err)
	}
	return Reply{Text: fmt.Sprintf("Updated #%d: %s %s %s @ %s", e.ID, e.Item, e.PriceString(), e.Currency, e.Store)}
}

// ─── Photos ──────────────────────────────────────────────────────────────────

// HandleScan reads a barcode out of a photo and offers its payload as a
// candidate item label.
func (h *Handler) HandleScan(userID int64, imageData []byte) Reply {
	text, err := barcode.Decode(imageData)
	if err != nil {
		if errors.Is(err, barcode.ErrNoCode) {
			return Reply{Text: "I couldn't find a barcode in that photo."}
		}
		h.log.Warn().Int64("user", userID).Err(err).Msg("barcode decode failed")
		return Reply{Text: "I couldn't read that image."}
	}
	return Reply{Text: fmt.Sprintf("Scanned %s. Log it with:\nadd %s <price> <store>", text, text)}
}

// ─── Errors ──────────────────────────────────────────────────────────────────

// errorReply maps an error onto a user-facing message. Validation,
// not-found and conversion problems are the user's to fix; anything
// else is logged and reported generically so internals never leak.
func (h *Handler) errorReply(op string, err error) Reply {
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		return Reply{Text: verr.Reason}
	}
	if errors.Is(err, ledger.ErrNotFound) {
		return Reply{Text: "I couldn't find that entry."}
	}
	var cerr *fx.ConversionError
	if errors.As(err, &cerr) {
		return Reply{Text: fmt.Sprintf("Couldn't convert %s to %s right now — nothing was saved.", cerr.From, cerr.To)}
	}

	h.log.Error().Str("op", op).Err(err).Msg("operation failed")
	return Reply{Text: "Something went wrong on my side. Please try again."}
}
