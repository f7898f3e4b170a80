package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"powerchip/internal/domain/model"
	"powerchip/internal/payment"
	repo "powerchip/internal/repository"
	"powerchip/internal/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentUsecase struct {
	orders  repo.OrderRepository
	users   repo.UserRepository
	gateway payment.Gateway
	cache   StatusCache
	logger  *zap.Logger

	idempotencyKey func() string
}

func NewPaymentUsecase(
	orders repo.OrderRepository,
	users repo.UserRepository,
	gateway payment.Gateway,
	cache StatusCache,
	logger *zap.Logger,
) *PaymentUsecase {
	if cache == nil {
		cache = NoopStatusCache
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentUsecase{
		orders:         orders,
		users:          users,
		gateway:        gateway,
		cache:          cache,
		logger:         logger,
		idempotencyKey: uuid.NewString,
	}
}

type CreatePaymentInput struct {
	OrderID int64
	Method  payment.MethodRequest
}

type CreatePaymentOutput struct {
	payment.PaymentResult
	OrderID       int64               `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
}

// 支払いを開始する。
// ゲートウェイが失敗・タイムアウトした場合は注文に何も書かない（別の方法で再試行できる）
func (u *PaymentUsecase) CreatePayment(ctx context.Context, userID int64, in CreatePaymentInput) (CreatePaymentOutput, error) {
	if userID <= 0 {
		return CreatePaymentOutput{}, errUnauthorized
	}
	if in.OrderID <= 0 {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}
	if in.Method == nil {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}
	if err := in.Method.Validate(); err != nil {
		return CreatePaymentOutput{}, methodError(err)
	}
	if b, ok := in.Method.(payment.BoletoRequest); ok && !validator.IsTaxID(b.TaxID) {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid tax_id")
	}

	o, err := u.orders.FindByID(ctx, in.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return CreatePaymentOutput{}, errNotFound
	}
	if err != nil {
		return CreatePaymentOutput{}, errDB
	}
	if !o.IsOwnedBy(userID) {
		return CreatePaymentOutput{}, errNotFound
	}
	//二重課金防止
	if o.PaymentStatus != model.PaymentStatusPending {
		return CreatePaymentOutput{}, NewHTTPError(http.StatusConflict, "already processed")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CreatePaymentOutput{}, errUnauthorized
	}
	if err != nil {
		return CreatePaymentOutput{}, errDB
	}

	log := u.logger.With(zap.Int64("order_id", o.ID), zap.String("method", string(in.Method.Method())))

	res, err := u.gateway.CreatePayment(ctx, payment.CreatePaymentRequest{
		OrderID:        o.ID,
		Amount:         o.TotalAmount,
		Description:    "Pedido " + o.OrderNumber,
		Payer:          payerOf(user, in.Method),
		Method:         in.Method,
		IdempotencyKey: u.idempotencyKey(),
	})
	if err != nil {
		if ge, ok := payment.AsGatewayError(err); ok {
			log.Error("payment gateway create failed", zap.Int("gateway_status", ge.StatusCode), zap.String("gateway_message", ge.Message), zap.Error(ge.Err))
		} else {
			log.Error("payment gateway create failed", zap.Error(err))
		}
		if errors.Is(err, payment.ErrInvalidRequest) {
			return CreatePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment request")
		}
		return CreatePaymentOutput{}, errGateway
	}

	//pendingのときだけ保存（同時リクエストで片方だけ通る）
	attached, err := u.orders.AttachPayment(ctx, o.ID, res.ID, in.Method.Method())
	if err != nil {
		log.Error("attach payment failed", zap.String("payment_id", res.ID), zap.Error(err))
		return CreatePaymentOutput{}, errDB
	}
	if !attached {
		log.Warn("payment created but order is no longer pending", zap.String("payment_id", res.ID))
		return CreatePaymentOutput{}, NewHTTPError(http.StatusConflict, "already processed")
	}

	log.Info("payment created", zap.String("payment_id", res.ID), zap.String("gateway_status", res.Status))

	return CreatePaymentOutput{
		PaymentResult: res,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		PaymentStatus: model.PaymentStatusProcessing,
	}, nil
}

func methodError(err error) error {
	switch {
	case errors.Is(err, payment.ErrCardTokenRequired):
		return NewHTTPError(http.StatusBadRequest, "card_token required")
	case errors.Is(err, payment.ErrTaxIDRequired):
		return NewHTTPError(http.StatusBadRequest, "tax_id required")
	case errors.Is(err, payment.ErrInvalidRequest):
		return NewHTTPError(http.StatusBadRequest, strings.TrimPrefix(err.Error(), payment.ErrInvalidRequest.Error()+": "))
	}
	return NewHTTPError(http.StatusBadRequest, "invalid payment request")
}

// 支払者。書類はユーザーのCPFを優先し、無ければboletoのtax_id
func payerOf(user model.User, m payment.MethodRequest) payment.Payer {
	p := payment.Payer{
		Email:     user.Email,
		FirstName: user.FirstName(),
		LastName:  strings.TrimSpace(strings.TrimPrefix(user.Name, user.FirstName())),
	}

	doc := validator.OnlyDigits(user.Document)
	if doc == "" {
		if b, ok := m.(payment.BoletoRequest); ok {
			doc = validator.OnlyDigits(b.TaxID)
		}
	}
	if doc != "" {
		p.DocType = validator.TaxIDType(doc)
		p.DocNumber = doc
	}
	return p
}

// ポーリング用の決済状態。何も書き換えない
func (u *PaymentUsecase) GetPaymentStatus(ctx context.Context, actor Actor, paymentID string) (PaymentStatusView, error) {
	if actor.UserID <= 0 {
		return PaymentStatusView{}, errUnauthorized
	}
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return PaymentStatusView{}, NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}

	o, err := u.orders.FindByPaymentID(ctx, paymentID)
	if errors.Is(err, repo.ErrNotFound) {
		return PaymentStatusView{}, NewHTTPError(http.StatusNotFound, "payment not found")
	}
	if err != nil {
		return PaymentStatusView{}, errDB
	}
	if !o.IsOwnedBy(actor.UserID) && !actor.IsAdmin() {
		return PaymentStatusView{}, errForbidden
	}

	if v, ok, err := u.cache.Get(ctx, paymentID); err != nil {
		u.logger.Warn("status cache get failed", zap.String("payment_id", paymentID), zap.Error(err))
	} else if ok {
		return v, nil
	}

	info, err := u.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		u.logger.Error("payment gateway lookup failed", zap.String("payment_id", paymentID), zap.Error(err))
		return PaymentStatusView{}, errGateway
	}

	view := PaymentStatusView{
		PaymentID:         paymentID,
		Status:            info.Status,
		StatusDetail:      info.StatusDetail,
		Description:       model.DescribeGatewayStatus(info.Status),
		TransactionAmount: info.TransactionAmount,
		NetReceivedAmount: info.NetReceivedAmount,
		OrderID:           o.ID,
		OrderNumber:       o.OrderNumber,
		OrderStatus:       o.Status,
		PaymentStatus:     o.PaymentStatus,
	}

	// 注文側がまだ追いついていない（webhook未反映）ならキャッシュしない
	if ps, _ := model.MapGatewayStatus(info.Status); ps != o.PaymentStatus {
		return view, nil
	}
	if err := u.cache.Set(ctx, view); err != nil {
		u.logger.Warn("status cache set failed", zap.String("payment_id", paymentID), zap.Error(err))
	}
	return view, nil
}

