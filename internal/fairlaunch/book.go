package fairlaunch

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"launchscope/internal/model"
)

// Book tracks fair-launch sales reconstructed from decoded factory events.
// It is safe for concurrent use.
type Book struct {
	mu     sync.RWMutex
	sales  map[common.Address]*Sale
	logger *zap.Logger
}

func NewBook(logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Book{
		sales:  make(map[common.Address]*Sale),
		logger: logger,
	}
}

// Register adds a sale with its immutable parameters. Registering an
// existing sale address is a no-op.
func (b *Book) Register(sale *Sale) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sales[sale.Address]; ok {
		return
	}
	if sale.TotalRaised == nil {
		sale.TotalRaised = big.NewInt(0)
	}
	if sale.Contributions == nil {
		sale.Contributions = make(map[common.Address]*big.Int)
	}
	b.sales[sale.Address] = sale
}

// Get returns a point-in-time copy of the sale state.
func (b *Book) Get(address common.Address) (Sale, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sale, ok := b.sales[address]
	if !ok {
		return Sale{}, false
	}
	return snapshotSale(sale), true
}

// Sales returns point-in-time copies of every tracked sale.
func (b *Book) Sales() []Sale {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Sale, 0, len(b.sales))
	for _, sale := range b.sales {
		out = append(out, snapshotSale(sale))
	}
	return out
}

// Phase returns the sale's phase as of now.
func (b *Book) Phase(address common.Address, now time.Time) (Phase, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sale, ok := b.sales[address]
	if !ok {
		return "", ErrSaleNotFound
	}
	return sale.PhaseAt(now), nil
}

// Apply folds a decoded factory event into the book. Events for unknown
// sales are logged and skipped so a partial replay cannot wedge the feed.
func (b *Book) Apply(event *model.TypedEvent) error {
	switch data := event.Decoded.(type) {
	case model.ContributedEventData:
		return b.applyContribution(data)
	case model.FinalizedEventData:
		return b.applyFinalized(data)
	case model.RefundedEventData:
		return b.applyRefund(data)
	default:
		return nil
	}
}

func (b *Book) applyContribution(data model.ContributedEventData) error {
	sale, contributor, amount, err := b.lookup(data.Sale, data.Contributor, data.Amount)
	if errors.Is(err, ErrSaleNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	sale.TotalRaised.Add(sale.TotalRaised, amount)
	existing, ok := sale.Contributions[contributor]
	if !ok {
		existing = big.NewInt(0)
		sale.Contributions[contributor] = existing
	}
	existing.Add(existing, amount)
	return nil
}

func (b *Book) applyFinalized(data model.FinalizedEventData) error {
	if !common.IsHexAddress(data.Sale) {
		return fmt.Errorf("invalid sale address: %s", data.Sale)
	}
	address := common.HexToAddress(data.Sale)

	b.mu.Lock()
	defer b.mu.Unlock()
	sale, ok := b.sales[address]
	if !ok {
		b.logger.Warn("finalized event for unknown sale", zap.String("sale", data.Sale))
		return nil
	}
	sale.Finalized = true
	return nil
}

func (b *Book) applyRefund(data model.RefundedEventData) error {
	sale, contributor, amount, err := b.lookup(data.Sale, data.Contributor, data.Amount)
	if errors.Is(err, ErrSaleNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	existing, ok := sale.Contributions[contributor]
	if !ok || existing.Cmp(amount) < 0 {
		return fmt.Errorf("refund exceeds contribution for %s", contributor.Hex())
	}
	existing.Sub(existing, amount)
	sale.TotalRaised.Sub(sale.TotalRaised, amount)
	return nil
}

func (b *Book) lookup(saleHex, contributorHex, amountStr string) (*Sale, common.Address, *big.Int, error) {
	if !common.IsHexAddress(saleHex) {
		return nil, common.Address{}, nil, fmt.Errorf("invalid sale address: %s", saleHex)
	}
	if !common.IsHexAddress(contributorHex) {
		return nil, common.Address{}, nil, fmt.Errorf("invalid contributor address: %s", contributorHex)
	}
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok || amount.Sign() < 0 {
		return nil, common.Address{}, nil, fmt.Errorf("invalid amount: %s", amountStr)
	}

	b.mu.RLock()
	sale, found := b.sales[common.HexToAddress(saleHex)]
	b.mu.RUnlock()
	if !found {
		b.logger.Warn("event for unknown sale", zap.String("sale", saleHex))
		return nil, common.Address{}, nil, ErrSaleNotFound
	}
	return sale, common.HexToAddress(contributorHex), amount, nil
}

func snapshotSale(sale *Sale) Sale {
	copied := *sale
	copied.TotalRaised = new(big.Int).Set(sale.TotalRaised)
	copied.Contributions = make(map[common.Address]*big.Int, len(sale.Contributions))
	for addr, amount := range sale.Contributions {
		copied.Contributions[addr] = new(big.Int).Set(amount)
	}
	return copied
}
