package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"powerchip/internal/domain/model"
	repo "powerchip/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	defaultProductLimit = 12
	maxProductLimit     = 50
)

type ProductUsecase struct {
	productRepo  repo.ProductRepository
	categoryRepo repo.CategoryRepository
	tx           repo.TransactionManager
	now          func() time.Time
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	categoryRepo repo.CategoryRepository,
	tx repo.TransactionManager,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		tx:           tx,
		now:          time.Now,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page              int
	Limit             int
	CategoryID        *int64
	Search            string
	Sort              string
	IncludeOutOfStock bool
}

type ProductListOutput struct {
	Products    []model.Product `json:"products"`
	Total       int64           `json:"total"`
	Page        int             `json:"page"`
	Limit       int             `json:"limit"`
	TotalPages  int             `json:"total_pages"`
	HasNextPage bool            `json:"has_next_page"`
	HasPrevPage bool            `json:"has_prev_page"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = defaultProductLimit
	}
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Limit > maxProductLimit {
		in.Limit = maxProductLimit
	}
	if len(in.Search) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "search too long")
	}
	switch in.Sort {
	case "":
		in.Sort = "newest"
	case "newest", "price_asc", "price_desc", "name":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:              in.Page,
		Limit:             in.Limit,
		CategoryID:        in.CategoryID,
		Search:            strings.TrimSpace(in.Search),
		Sort:              in.Sort,
		IncludeOutOfStock: in.IncludeOutOfStock,
	})
	if err != nil {
		return ProductListOutput{}, errDB
	}

	pages := totalPages(total, in.Limit)
	return ProductListOutput{
		Products:    items,
		Total:       total,
		Page:        in.Page,
		Limit:       in.Limit,
		TotalPages:  pages,
		HasNextPage: in.Page < pages,
		HasPrevPage: in.Page > 1,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, errNotFound
	}
	if err != nil {
		return model.Product{}, errDB
	}

	if !p.IsActive {
		return model.Product{}, errNotFound
	}
	return p, nil
}

func (u *ProductUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	cs, err := u.categoryRepo.ListActive(ctx)
	if err != nil {
		return []model.Category{}, errDB
	}
	return cs, nil
}

type AdminProductInput struct {
	Name        string
	Description string
	SKU         string
	Price       decimal.Decimal
	// 作成時のみ使う（更新は /admin/inventory）
	Stock      int64
	IsActive   bool
	CategoryID *int64
	ImageURL   string
}

func (in AdminProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if !in.Price.IsPositive() {
		return NewHTTPError(http.StatusBadRequest, "price must be > 0")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}

type productSnapshot struct {
	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Price    decimal.Decimal `json:"price"`
	Stock    int64           `json:"stock_quantity"`
	IsActive bool            `json:"active"`
}

func snapshotOf(p model.Product) productSnapshot {
	return productSnapshot{Name: p.Name, SKU: p.SKU, Price: p.Price, Stock: p.StockQuantity, IsActive: p.IsActive}
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, errUnauthorized
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	var created model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, model.Product{
			Name:          strings.TrimSpace(in.Name),
			Description:   in.Description,
			SKU:           strings.TrimSpace(in.SKU),
			Price:         in.Price.Round(2),
			StockQuantity: in.Stock,
			IsActive:      in.IsActive,
			CategoryID:    in.CategoryID,
			ImageURL:      in.ImageURL,
		})
		if err != nil {
			return errDB
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionCreateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   p.ID,
			AfterJSON:    toJSON(snapshotOf(p)),
			CreatedAt:    u.now(),
		}); err != nil {
			return errDB
		}

		created = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return created, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, errUnauthorized
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	in.Stock = 0
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	var updated model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}

		after := before
		after.Name = strings.TrimSpace(in.Name)
		after.Description = in.Description
		after.SKU = strings.TrimSpace(in.SKU)
		after.Price = in.Price.Round(2)
		after.IsActive = in.IsActive
		after.CategoryID = in.CategoryID
		after.ImageURL = in.ImageURL

		if err := r.Products().Update(ctx, after); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound
			}
			return errDB
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   toJSON(snapshotOf(before)),
			AfterJSON:    toJSON(snapshotOf(after)),
			CreatedAt:    u.now(),
		}); err != nil {
			return errDB
		}

		updated = after
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return updated, nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return errUnauthorized
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}

		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound
			}
			return errDB
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   toJSON(snapshotOf(before)),
			CreatedAt:    u.now(),
		}); err != nil {
			return errDB
		}
		return nil
	})
}

// 在庫の再設定。履歴（差分）と監査ログを同じTxで残す
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return errUnauthorized
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if newStock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound
		}
		if err != nil {
			return errDB
		}

		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound
			}
			return errDB
		}

		now := u.now()
		admin := adminUserID
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			Kind:        model.InventoryAdjustmentAdminSet,
			AdminUserID: &admin,
			Delta:       newStock - p.StockQuantity,
			Reason:      reason,
			CreatedAt:   now,
		}); err != nil {
			return errDB
		}

		//「誰が」「何を」「どの対象に」「どう変えたか」を残す
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"stock_quantity":%d}`, p.StockQuantity),
			AfterJSON:    toJSON(map[string]any{"stock_quantity": newStock, "reason": reason}),
			CreatedAt:    now,
		}); err != nil {
			return errDB
		}
		return nil
	})
}
