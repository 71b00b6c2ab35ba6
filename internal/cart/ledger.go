package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-api/internal/models"
	"storefront-api/pkg/utils"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrNilProduct      = errors.New("product is required")
	ErrOutOfStock      = errors.New("product is out of stock")

	ErrUnknownVariant     = errors.New("variant not offered for this product")
	ErrVariantUnavailable = errors.New("variant is out of stock")
)

type Option func(*Ledger)

// WithStockLimit clamps quantities to the product's stock quantity.
func WithStockLimit(enabled bool) Option {
	return func(l *Ledger) { l.clampToStock = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger is the list of cart lines for one session together with its
// derived totals. All mutation goes through its methods.
type Ledger struct {
	mu           sync.Mutex
	lines        []*models.CartLine
	itemCount    int
	subtotal     decimal.Decimal
	clampToStock bool
	now          func() time.Time
}

func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{now: time.Now, subtotal: decimal.Zero}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddItem merges quantity into the line for the same product and selection,
// or appends a new line.
func (l *Ledger) AddItem(product *models.Product, quantity int, selection map[string]string) (models.CartLine, error) {
	if product == nil {
		return models.CartLine{}, ErrNilProduct
	}
	if quantity < 1 {
		return models.CartLine{}, ErrInvalidQuantity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := SelectionKey(selection)
	for _, line := range l.lines {
		if line.Product.ID == product.ID && SelectionKey(line.SelectedVariants) == key {
			line.Quantity = l.limit(product, line.Quantity+quantity)
			l.recompute()
			return view(line), nil
		}
	}

	if l.clampToStock && product.StockQuantity < 1 {
		return models.CartLine{}, ErrOutOfStock
	}
	line := &models.CartLine{
		ID:               uuid.NewString(),
		Product:          product,
		Quantity:         l.limit(product, quantity),
		SelectedVariants: copySelection(selection),
		AddedAt:          l.now().UTC(),
	}
	l.lines = append(l.lines, line)
	l.recompute()
	return view(line), nil
}

// UpdateQuantity sets the quantity of a line. Values below 1 remove it.
// Unknown ids are ignored.
func (l *Ledger) UpdateQuantity(lineID string, quantity int) {
	if quantity < 1 {
		l.RemoveItem(lineID)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, line := range l.lines {
		if line.ID == lineID {
			line.Quantity = l.limit(line.Product, quantity)
			l.recompute()
			return
		}
	}
}

func (l *Ledger) RemoveItem(lineID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, line := range l.lines {
		if line.ID == lineID {
			l.lines = append(l.lines[:i], l.lines[i+1:]...)
			l.recompute()
			return
		}
	}
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = nil
	l.recompute()
}

func (l *Ledger) ItemCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.itemCount
}

func (l *Ledger) Subtotal() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.subtotal
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

// Line returns a copy of the line with the given id.
func (l *Ledger) Line(lineID string) (models.CartLine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, line := range l.lines {
		if line.ID == lineID {
			return view(line), true
		}
	}
	return models.CartLine{}, false
}

// Lines returns copies of the lines in insertion order.
func (l *Ledger) Lines() []models.CartLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.linesLocked()
}

func (l *Ledger) Snapshot() models.CartSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	return models.CartSnapshot{
		Lines:     l.linesLocked(),
		ItemCount: l.itemCount,
		Subtotal:  utils.RoundMoney(l.subtotal),
	}
}

// Stored returns the persistable form of the ledger.
func (l *Ledger) Stored() []models.StoredLine {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.StoredLine, 0, len(l.lines))
	for _, line := range l.lines {
		out = append(out, models.StoredLine{
			ID:               line.ID,
			ProductID:        line.Product.ID,
			Quantity:         line.Quantity,
			SelectedVariants: copySelection(line.SelectedVariants),
			AddedAt:          line.AddedAt,
		})
	}
	return out
}

// Restore rebuilds a ledger from stored lines. Lines whose product is no
// longer in the catalog, or whose quantity is not positive, are dropped.
func Restore(stored []models.StoredLine, lookup func(id string) (*models.Product, bool), opts ...Option) *Ledger {
	l := NewLedger(opts...)
	for _, s := range stored {
		product, ok := lookup(s.ProductID)
		if !ok || s.Quantity < 1 {
			continue
		}
		id := s.ID
		if id == "" {
			id = uuid.NewString()
		}
		l.lines = append(l.lines, &models.CartLine{
			ID:               id,
			Product:          product,
			Quantity:         l.limit(product, s.Quantity),
			SelectedVariants: copySelection(s.SelectedVariants),
			AddedAt:          s.AddedAt,
		})
	}
	l.recompute()
	return l
}

func (l *Ledger) linesLocked() []models.CartLine {
	out := make([]models.CartLine, 0, len(l.lines))
	for _, line := range l.lines {
		out = append(out, view(line))
	}
	return out
}

func (l *Ledger) limit(product *models.Product, quantity int) int {
	if l.clampToStock && product.StockQuantity > 0 && quantity > product.StockQuantity {
		return product.StockQuantity
	}
	return quantity
}

func (l *Ledger) recompute() {
	count := 0
	total := decimal.Zero
	for _, line := range l.lines {
		count += line.Quantity
		total = total.Add(lineTotal(line))
	}
	l.itemCount = count
	l.subtotal = total
}

// CheckSelection reports whether product can be bought with selection: the
// product must be in stock and every chosen group and value must be one of
// its in-stock variants.
func CheckSelection(product *models.Product, selection map[string]string) error {
	if product == nil {
		return ErrNilProduct
	}
	if !product.InStock {
		return ErrOutOfStock
	}
	for group, value := range selection {
		found := false
		for _, v := range product.Variants {
			if v.Name != group || v.Value != value {
				continue
			}
			if !v.InStock {
				return fmt.Errorf("%w: %s %s", ErrVariantUnavailable, group, value)
			}
			found = true
			break
		}
		if !found {
			return fmt.Errorf("%w: %s %s", ErrUnknownVariant, group, value)
		}
	}
	return nil
}

// EffectivePrice is the unit price of product under selection: the first
// variant, in product order, that is selected and overrides the price; else
// the base price.
func EffectivePrice(product *models.Product, selection map[string]string) decimal.Decimal {
	for _, v := range product.Variants {
		if v.Price == nil {
			continue
		}
		if chosen, ok := selection[v.Name]; ok && chosen == v.Value {
			return decimal.NewFromFloat(*v.Price)
		}
	}
	return decimal.NewFromFloat(product.Price)
}

func lineTotal(line *models.CartLine) decimal.Decimal {
	return EffectivePrice(line.Product, line.SelectedVariants).Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// SelectionKey is the canonical form of a variant selection. encoding/json
// writes map keys in sorted order, so equal mappings give equal keys.
// Empty and nil selections share the empty key.
func SelectionKey(selection map[string]string) string {
	if len(selection) == 0 {
		return ""
	}
	b, err := json.Marshal(selection)
	if err != nil {
		return ""
	}
	return string(b)
}

func copySelection(selection map[string]string) map[string]string {
	if len(selection) == 0 {
		return nil
	}
	out := make(map[string]string, len(selection))
	for k, v := range selection {
		out[k] = v
	}
	return out
}

func view(line *models.CartLine) models.CartLine {
	out := *line
	out.SelectedVariants = copySelection(line.SelectedVariants)
	out.UnitPrice = utils.RoundMoney(EffectivePrice(line.Product, line.SelectedVariants))
	out.LineTotal = utils.RoundMoney(lineTotal(line))
	return out
}
