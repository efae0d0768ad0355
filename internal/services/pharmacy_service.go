package services

import (
	"context"
	"fmt"

	"fnh-backend/internal/apperrors"
	"fnh-backend/internal/database"
	"fnh-backend/internal/metrics"
	"fnh-backend/internal/models"
	"fnh-backend/internal/money"
	"fnh-backend/internal/regnum"
	"fnh-backend/internal/repositories"
	"fnh-backend/internal/timeutil"
)

// PharmacyService sells medicine against batch-tracked stock and books
// the proceeds through the billing engine. Stock is consumed strictly
// oldest batch first, each portion priced at its own batch's unit price
// unless the operator overrides the price for the whole sale.
type PharmacyService struct {
	Billing *BillingService
	Stock   *repositories.StockRepository
	Sales   *repositories.MedicineSaleRepository
}

func NewPharmacyService(billing *BillingService, stock *repositories.StockRepository, sales *repositories.MedicineSaleRepository) *PharmacyService {
	return &PharmacyService{Billing: billing, Stock: stock, Sales: sales}
}

// planFIFO walks the open batches oldest first and returns the takes
// that satisfy qty. The plan is computed before any row is modified;
// when stock is short nothing has been touched yet.
func planFIFO(batches []*models.StockBatch, qty int) ([]models.BatchTake, error) {
	remaining := qty
	var plan []models.BatchTake

	for _, b := range batches {
		if remaining == 0 {
			break
		}
		take := b.RemainingQty
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}
		plan = append(plan, models.BatchTake{BatchID: b.ID, Qty: take, UnitPrice: b.UnitPrice})
		remaining -= take
	}

	if remaining > 0 {
		return nil, fmt.Errorf("%w: %d short", apperrors.ErrInsufficientStock, remaining)
	}
	return plan, nil
}

// planTotal prices a FIFO plan, applying the override price to every
// unit when one is given.
func planTotal(plan []models.BatchTake, override *float64) float64 {
	var total float64
	for _, take := range plan {
		price := take.UnitPrice
		if override != nil {
			price = *override
		}
		total += float64(take.Qty) * price
	}
	return money.Round(total)
}

// SellMedicine is the point-of-sale operation: consume stock FIFO,
// create the sale with one priced line per batch touched, and run the
// money through the charge, payment, shift and account machinery.
func (s *PharmacyService) SellMedicine(ctx context.Context, req *models.SellMedicineRequest, operatorID int, operatorName string) (*models.MedicineSale, error) {
	if req.Patient.Name == "" {
		return nil, apperrors.Validationf("patient name is required")
	}
	if req.Quantity <= 0 {
		return nil, apperrors.Validationf("quantity must be positive")
	}
	if req.UnitPriceOverride != nil && *req.UnitPriceOverride < 0 {
		return nil, apperrors.Validationf("override price cannot be negative")
	}
	saleDate, err := parseDateOrToday(req.SaleDate)
	if err != nil {
		return nil, err
	}

	var sale *models.MedicineSale
	err = s.Billing.DB.InTx(ctx, func(tx database.Querier) error {
		patient, err := s.Billing.Patients.Upsert(ctx, tx, &req.Patient)
		if err != nil {
			return err
		}

		item, err := s.Stock.GetItem(ctx, tx, req.ItemID)
		if err != nil {
			return err
		}
		if item.CurrentStock < req.Quantity {
			return fmt.Errorf("%w: %s has %d %s, requested %d",
				apperrors.ErrInsufficientStock, item.Name, item.CurrentStock, item.Unit, req.Quantity)
		}

		firstIntake, err := s.Stock.FirstIntakeDate(ctx, tx, item.ID)
		if err != nil {
			return err
		}
		if saleDate.Before(timeutil.StartOfDay(firstIntake)) {
			return fmt.Errorf("%w: sale predates first stock intake of %s",
				apperrors.ErrDateOutOfRange, item.Name)
		}

		batches, err := s.Stock.OpenBatchesForUpdate(ctx, tx, item.ID)
		if err != nil {
			return err
		}
		plan, err := planFIFO(batches, req.Quantity)
		if err != nil {
			return err
		}
		total := planTotal(plan, req.UnitPriceOverride)

		if req.PaidAmount < 0 {
			return apperrors.Validationf("paid amount cannot be negative")
		}
		if money.Round(req.PaidAmount) > total+money.Epsilon {
			return apperrors.Validationf("paid amount %.2f exceeds sale total %.2f", req.PaidAmount, total)
		}

		seq, err := s.Billing.RegCounters.Next(ctx, tx, regnum.DeptPharmacy, timeutil.YearTwoDigit(saleDate))
		if err != nil {
			return err
		}

		sale = &models.MedicineSale{
			RegNumber:       regnum.Format(regnum.DeptPharmacy, timeutil.YearTwoDigit(saleDate), seq),
			PatientID:       patient.ID,
			PatientName:     patient.Name,
			ItemID:          item.ID,
			ItemName:        item.Name,
			Quantity:        req.Quantity,
			TotalAmount:     total,
			SaleDate:        saleDate,
			CreatedByUserID: operatorID,
		}
		if err := s.Sales.Create(ctx, tx, sale); err != nil {
			return err
		}

		for _, take := range plan {
			if err := s.Stock.TakeFromBatch(ctx, tx, take.BatchID, take.Qty); err != nil {
				return err
			}
			if err := s.Stock.CreateConsumption(ctx, tx, &models.StockConsumption{
				SaleID:    sale.ID,
				BatchID:   take.BatchID,
				ItemID:    item.ID,
				Quantity:  take.Qty,
				UnitPrice: take.UnitPrice,
			}); err != nil {
				return err
			}

			price := take.UnitPrice
			if req.UnitPriceOverride != nil {
				price = *req.UnitPriceOverride
			}
			line := &models.MedicineSaleItem{
				SaleID:    sale.ID,
				BatchID:   take.BatchID,
				Quantity:  take.Qty,
				UnitPrice: price,
				LineTotal: money.Round(float64(take.Qty) * price),
			}
			if err := s.Sales.CreateItem(ctx, tx, line); err != nil {
				return err
			}
			sale.Items = append(sale.Items, line)
		}

		if err := s.Stock.AdjustItemStock(ctx, tx, item.ID, -req.Quantity); err != nil {
			return err
		}

		ref, err := models.NewChargeRef(models.RefMedicineSale, sale.ID)
		if err != nil {
			return err
		}
		fin := &models.FinancialData{
			LineItems:     []models.LineItem{{Description: fmt.Sprintf("%s x%d", item.Name, req.Quantity), Amount: total}},
			PaidAmount:    money.Round(req.PaidAmount),
			PaymentMethod: req.PaymentMethod,
		}
		_, err = s.Billing.createCharge(ctx, tx, patient.ID, ref,
			fmt.Sprintf("Medicine sale %s", sale.RegNumber), fin, operatorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.MedicineSalesTotal.Inc()
	s.Billing.Audit.Record(&models.AuditLog{
		UserID:      operatorID,
		UserName:    operatorName,
		ActionType:  "sell",
		TargetType:  "medicine_sale",
		TargetID:    &sale.ID,
		Description: fmt.Sprintf("Sold %d %s to %s (%s)", sale.Quantity, sale.ItemName, sale.PatientName, sale.RegNumber),
		Amount:      sale.TotalAmount,
	})
	return sale, nil
}

// DeleteSale reverses a sale completely: the consumed quantities are
// replayed back into the exact batches they came from, the running
// stock counter is restored, and the financial history is reversed.
func (s *PharmacyService) DeleteSale(ctx context.Context, id int, operatorID int, operatorName string) error {
	var regNumber string
	err := s.Billing.DB.InTx(ctx, func(tx database.Querier) error {
		sale, err := s.Sales.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		regNumber = sale.RegNumber

		consumptions, err := s.Stock.ListConsumptionsBySale(ctx, tx, sale.ID)
		if err != nil {
			return err
		}
		var restocked int
		for _, c := range consumptions {
			if err := s.Stock.ReturnToBatch(ctx, tx, c.BatchID, c.Quantity); err != nil {
				return err
			}
			restocked += c.Quantity
		}
		if restocked > 0 {
			if err := s.Stock.AdjustItemStock(ctx, tx, sale.ItemID, restocked); err != nil {
				return err
			}
		}
		if err := s.Stock.DeleteConsumptionsBySale(ctx, tx, sale.ID); err != nil {
			return err
		}

		ref, err := models.NewChargeRef(models.RefMedicineSale, sale.ID)
		if err != nil {
			return err
		}
		if err := s.Billing.reverseCharges(ctx, tx, sale.PatientID, ref); err != nil {
			return err
		}
		return s.Sales.Delete(ctx, tx, sale.ID)
	})
	if err != nil {
		return err
	}

	s.Billing.Audit.Record(&models.AuditLog{
		UserID:      operatorID,
		UserName:    operatorName,
		ActionType:  "delete",
		TargetType:  "medicine_sale",
		TargetID:    &id,
		Description: fmt.Sprintf("Deleted sale %s with restock and financial reversal", regNumber),
	})
	return nil
}

// GetSale returns one sale with its lines.
func (s *PharmacyService) GetSale(ctx context.Context, id int) (*models.MedicineSale, error) {
	return s.Sales.Get(ctx, s.Billing.DB, id)
}

// ListSales returns sales newest first.
func (s *PharmacyService) ListSales(ctx context.Context, limit, offset int) ([]*models.MedicineSale, error) {
	return s.Sales.List(ctx, limit, offset)
}

// CreateItem registers a new stocked medicine.
func (s *PharmacyService) CreateItem(ctx context.Context, item *models.StockItem) error {
	if item.Name == "" {
		return apperrors.Validationf("item name is required")
	}
	if item.Unit == "" {
		item.Unit = "unit"
	}
	return s.Stock.CreateItem(ctx, item)
}

// ListItems returns the stocked medicines.
func (s *PharmacyService) ListItems(ctx context.Context) ([]*models.StockItem, error) {
	return s.Stock.ListItems(ctx)
}

// ReceiveStock records one intake lot and bumps the running counter.
func (s *PharmacyService) ReceiveStock(ctx context.Context, req *models.ReceiveStockRequest) (*models.StockBatch, error) {
	if req.Quantity <= 0 {
		return nil, apperrors.Validationf("intake quantity must be positive")
	}
	if req.UnitPrice < 0 {
		return nil, apperrors.Validationf("unit price cannot be negative")
	}
	receivedDate, err := parseDateOrToday(req.IntakeDate)
	if err != nil {
		return nil, err
	}

	batch := &models.StockBatch{
		ItemID:       req.ItemID,
		Quantity:     req.Quantity,
		UnitPrice:    money.Round(req.UnitPrice),
		ReceivedDate: receivedDate,
	}
	err = s.Billing.DB.InTx(ctx, func(tx database.Querier) error {
		if _, err := s.Stock.GetItem(ctx, tx, req.ItemID); err != nil {
			return err
		}
		if err := s.Stock.CreateBatch(ctx, tx, batch); err != nil {
			return err
		}
		return s.Stock.AdjustItemStock(ctx, tx, req.ItemID, req.Quantity)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// ListBatches returns an item's batches oldest first.
func (s *PharmacyService) ListBatches(ctx context.Context, itemID int) ([]*models.StockBatch, error) {
	return s.Stock.ListBatches(ctx, itemID)
}

// VerifyItemStock compares the running counter with the sum of the
// item's batch remainders.
func (s *PharmacyService) VerifyItemStock(ctx context.Context, itemID int) (counter, fromBatches int, err error) {
	item, err := s.Stock.GetItem(ctx, s.Billing.DB, itemID)
	if err != nil {
		return 0, 0, err
	}
	sum, err := s.Stock.SumRemaining(ctx, itemID)
	if err != nil {
		return 0, 0, err
	}
	return item.CurrentStock, sum, nil
}
