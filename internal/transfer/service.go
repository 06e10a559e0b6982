package transfer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/MrJamesThe3rd/ordertransfer/internal/account"
	"github.com/MrJamesThe3rd/ordertransfer/internal/clock"
	"github.com/MrJamesThe3rd/ordertransfer/internal/metrics"
	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
	"github.com/MrJamesThe3rd/ordertransfer/internal/session"
)

const (
	noteAwaiting = "Awaiting order transfer confirmation"
	noteAccepted = "Transfer accepted"
	noteDeclined = "Transfer declined"
	noteExpired  = "Transfer automatically declined"
)

// Action keys offered to the destination in the requests listing.
const (
	ActionAccept = "accept_transfer"
	ActionRefuse = "refuse_transfer"
)

type Service struct {
	orders   order.Repository
	resolver *Resolver
	clock    clock.Clock
	settings Settings
	notifier Notifier
}

type Option func(*Service)

func WithSettings(settings Settings) Option {
	return func(s *Service) {
		s.settings = settings
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func NewService(orders order.Repository, accounts AccountDirectory, clk clock.Clock, opts ...Option) *Service {
	svc := &Service{
		orders:   orders,
		resolver: NewResolver(accounts),
		clock:    clk,
		settings: DefaultSettings(),
		notifier: nopNotifier{},
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

func (s *Service) Settings() Settings {
	return s.settings
}

// TxHook runs inside the checkout transaction once the order exists. An error
// aborts the checkout.
type TxHook func(ctx context.Context, tx order.Tx, o *order.Order) error

type CheckoutParams struct {
	PaymentMethod string
	DestEmail     string
	Source        *account.Account // nil for guests
	Session       *session.Session
	Hooks         []TxHook
}

type CheckoutResult struct {
	Order        *order.Order
	Record       Record
	Redirect     string
	Instructions string
}

// Checkout places the session cart as an order awaiting transfer. The cart is
// emptied on success; persisting the session is up to the caller.
func (s *Service) Checkout(ctx context.Context, params CheckoutParams) (*CheckoutResult, error) {
	if params.PaymentMethod != GatewayID {
		return nil, ErrUnsupportedPaymentMethod
	}

	if !s.settings.Enabled {
		return nil, ErrGatewayDisabled
	}

	if params.Session == nil || params.Session.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	dest, err := s.resolver.Resolve(ctx, params.DestEmail, params.Source)
	if err != nil {
		return nil, err
	}

	var sourceID *int64
	if params.Source != nil {
		sourceID = new(params.Source.ID)
	}

	o := orderFromCart(params.Session.Cart)
	o.Status = order.StatusPending
	o.PaymentMethod = GatewayID
	o.CustomerID = sourceID
	o.Meta = recordMeta(sourceID, dest)

	tx, err := s.orders.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("placing transfer order: %w", err)
	}
	defer tx.Rollback()

	if err := tx.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("placing transfer order: %w", err)
	}

	o.Status = order.StatusOnHold
	if err := tx.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("holding transfer order: %w", err)
	}

	if err := tx.ReduceStock(ctx, o.Items); err != nil {
		return nil, fmt.Errorf("reducing stock: %w", err)
	}

	for _, hook := range params.Hooks {
		if hook == nil {
			continue
		}

		if err := hook(ctx, tx, o); err != nil {
			return nil, err
		}
	}

	if err := tx.AddNote(ctx, o.ID, noteAwaiting); err != nil {
		return nil, fmt.Errorf("adding order note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer order: %w", err)
	}

	params.Session.Cart.Empty()

	metrics.TransfersRequestedTotal.Inc()
	slog.Info("order placed for transfer", "order_id", o.ID, "resolved", isResolved(dest))

	s.publish(ctx, requestedEvent(o, dest, s.settings.EmailInstructions(o, false), s.clock.Now()))

	rec, _ := RecordFromOrder(o)

	return &CheckoutResult{
		Order:        o,
		Record:       rec,
		Redirect:     ReceivedURL(o.ID),
		Instructions: s.settings.ThankYouInstructions(),
	}, nil
}

// ReceivedURL is the order-received page of an order.
func ReceivedURL(orderID int64) string {
	return fmt.Sprintf("/checkout/order-received/%d", orderID)
}

func orderFromCart(cart session.Cart) *order.Order {
	o := &order.Order{Total: cart.Total()}

	for _, item := range cart.Items {
		li := order.LineItem{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Attributes: item.Attributes,
			Total:      item.LineTotal(),
		}

		if item.VariationID != nil {
			li.VariationID = new(*item.VariationID)
		}

		o.Items = append(o.Items, li)
	}

	return o
}

func isResolved(dest Destination) bool {
	_, ok := dest.(ResolvedAccount)
	return ok
}

// Accept hands the order over to caller: the payment method is cleared so
// the new owner can pay, and the order goes back to pending.
func (s *Service) Accept(ctx context.Context, orderID int64, caller Caller) (*order.Order, error) {
	tx, err := s.orders.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("accepting transfer: %w", err)
	}
	defer tx.Rollback()

	o, rec, err := s.lockForCaller(ctx, tx, orderID, caller)
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = ""
	o.CustomerID = new(caller.AccountID)
	o.Status = order.StatusPending

	if err := tx.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("accepting transfer: %w", err)
	}

	if err := s.setStatus(ctx, tx, o, StatusAccepted); err != nil {
		return nil, err
	}

	if err := tx.SetMeta(ctx, o.ID, order.MetaTransferAccepted, "yes"); err != nil {
		return nil, fmt.Errorf("accepting transfer: %w", err)
	}

	o.SetMeta(order.MetaTransferAccepted, "yes")

	if err := s.finish(ctx, tx, o, noteAccepted); err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(StatusAccepted)).Inc()
	slog.Info("transfer accepted", "order_id", o.ID, "account_id", caller.AccountID)

	if e, ok := outcomeEvent(EventAccepted, o, rec, s.clock.Now()); ok {
		s.publish(ctx, e)
	}

	return o, nil
}

// Decline returns the order to pending without changing its owner.
func (s *Service) Decline(ctx context.Context, orderID int64, caller Caller) (*order.Order, error) {
	tx, err := s.orders.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("declining transfer: %w", err)
	}
	defer tx.Rollback()

	o, rec, err := s.lockForCaller(ctx, tx, orderID, caller)
	if err != nil {
		return nil, err
	}

	if err := s.release(ctx, tx, o, StatusDeclined, noteDeclined); err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(StatusDeclined)).Inc()
	slog.Info("transfer declined", "order_id", o.ID, "account_id", caller.AccountID)

	if e, ok := outcomeEvent(EventDeclined, o, rec, s.clock.Now()); ok {
		s.publish(ctx, e)
	}

	return o, nil
}

// Expire declines an overdue transfer on behalf of the system. It reports
// false, without error, when the order is no longer awaiting transfer.
func (s *Service) Expire(ctx context.Context, orderID int64) (bool, error) {
	tx, err := s.orders.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("expiring transfer: %w", err)
	}
	defer tx.Rollback()

	o, rec, err := s.lock(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotTransferOrder) {
			return false, nil
		}

		return false, err
	}

	if !awaiting(o, rec) {
		return false, nil
	}

	if err := s.release(ctx, tx, o, StatusExpired, noteExpired); err != nil {
		return false, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(StatusExpired)).Inc()
	slog.Info("transfer expired", "order_id", o.ID)

	if e, ok := outcomeEvent(EventExpired, o, rec, s.clock.Now()); ok {
		s.publish(ctx, e)
	}

	return true, nil
}

// lock loads the order under a row lock together with its transfer record.
func (s *Service) lock(ctx context.Context, tx order.Tx, orderID int64) (*order.Order, Record, error) {
	o, err := tx.GetForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, Record{}, err
		}

		return nil, Record{}, fmt.Errorf("locking order: %w", err)
	}

	rec, ok := RecordFromOrder(o)
	if !ok {
		return nil, Record{}, ErrNotTransferOrder
	}

	return o, rec, nil
}

// lockForCaller is lock plus the checks of a destination-initiated action.
// Callers other than the destination are refused before the state is
// looked at; the destination repeating an action gets ErrInvalidState.
func (s *Service) lockForCaller(ctx context.Context, tx order.Tx, orderID int64, caller Caller) (*order.Order, Record, error) {
	o, rec, err := s.lock(ctx, tx, orderID)
	if err != nil {
		return nil, Record{}, err
	}

	if !caller.Authenticated() || (rec.Destination != nil && !MatchesDestination(rec.Destination, caller)) {
		metrics.RejectedActionsTotal.WithLabelValues("unauthorized").Inc()
		return nil, Record{}, ErrUnauthorized
	}

	if !awaiting(o, rec) {
		metrics.RejectedActionsTotal.WithLabelValues("invalid_state").Inc()
		return nil, Record{}, ErrInvalidState
	}

	if !Permits(rec, caller) {
		metrics.RejectedActionsTotal.WithLabelValues("unauthorized").Inc()
		return nil, Record{}, ErrUnauthorized
	}

	return o, rec, nil
}

func awaiting(o *order.Order, rec Record) bool {
	return rec.Status == StatusAwaitingTransfer && o.Status == order.StatusOnHold
}

// release clears the destination and puts the order back to pending.
func (s *Service) release(ctx context.Context, tx order.Tx, o *order.Order, status Status, note string) error {
	o.Status = order.StatusPending

	if err := tx.Update(ctx, o); err != nil {
		return fmt.Errorf("releasing order: %w", err)
	}

	if err := tx.DeleteMeta(ctx, o.ID, order.MetaDestUserID, order.MetaDestAccountEmail); err != nil {
		return fmt.Errorf("clearing destination: %w", err)
	}

	o.DeleteMeta(order.MetaDestUserID, order.MetaDestAccountEmail)

	if err := s.setStatus(ctx, tx, o, status); err != nil {
		return err
	}

	return s.finish(ctx, tx, o, note)
}

func (s *Service) setStatus(ctx context.Context, tx order.Tx, o *order.Order, status Status) error {
	if err := tx.SetMeta(ctx, o.ID, order.MetaTransferStatus, string(status)); err != nil {
		return fmt.Errorf("setting transfer status: %w", err)
	}

	o.SetMeta(order.MetaTransferStatus, string(status))

	return nil
}

// finish appends the audit note after every other write and commits.
func (s *Service) finish(ctx context.Context, tx order.Tx, o *order.Order, note string) error {
	if err := tx.AddNote(ctx, o.ID, note); err != nil {
		return fmt.Errorf("adding order note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transfer: %w", err)
	}

	return nil
}

func (s *Service) publish(ctx context.Context, e Event) {
	if err := s.notifier.Notify(ctx, e); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("notify").Inc()
		slog.Error("failed to publish transfer notification", "error", err, "order_id", e.OrderID, "event", e.Type)
	}
}

// Action is an operation the destination can take on a request.
type Action struct {
	Key  string
	Name string
}

// Request is an order the caller may accept or refuse.
type Request struct {
	Order   *order.Order
	Record  Record
	Actions []Action
}

var requestActions = []Action{
	{Key: ActionAccept, Name: "Accept transfer"},
	{Key: ActionRefuse, Name: "Refuse transfer"},
}

// Requests lists the on-hold transfer orders caller is the destination of,
// oldest first. Resolved destinations are looked up by account id, unresolved
// ones by email.
func (s *Service) Requests(ctx context.Context, caller Caller) ([]Request, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}

	filters := []order.ListFilter{{
		Status:        new(order.StatusOnHold),
		PaymentMethod: new(GatewayID),
		Meta:          map[string]string{order.MetaDestUserID: order.FormatID(caller.AccountID)},
	}}

	if caller.Email != "" {
		filters = append(filters, order.ListFilter{
			Status:        new(order.StatusOnHold),
			PaymentMethod: new(GatewayID),
			MetaFold:      map[string]string{order.MetaDestAccountEmail: caller.Email},
		})
	}

	seen := make(map[int64]bool)

	var candidates []*order.Order

	for _, filter := range filters {
		orders, err := s.orders.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("listing transfer requests: %w", err)
		}

		for _, o := range orders {
			if !seen[o.ID] {
				seen[o.ID] = true
				candidates = append(candidates, o)
			}
		}
	}

	slices.SortFunc(candidates, func(a, b *order.Order) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})

	var requests []Request

	for _, o := range candidates {
		rec, ok := RecordFromOrder(o)
		if !ok || !Permits(rec, caller) {
			continue
		}

		requests = append(requests, Request{Order: o, Record: rec, Actions: requestActions})
	}

	return requests, nil
}

// FindOverdue returns the ids of orders awaiting transfer since before cutoff.
func (s *Service) FindOverdue(ctx context.Context, cutoff time.Time) ([]int64, error) {
	orders, err := s.orders.List(ctx, order.ListFilter{
		Status:        new(order.StatusOnHold),
		PaymentMethod: new(GatewayID),
		CreatedBefore: &cutoff,
	})
	if err != nil {
		return nil, fmt.Errorf("finding overdue transfers: %w", err)
	}

	var ids []int64

	for _, o := range orders {
		if rec, ok := RecordFromOrder(o); ok && rec.Status == StatusAwaitingTransfer {
			ids = append(ids, o.ID)
		}
	}

	return ids, nil
}
