package workflow_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/warehouse_backend/config"
	"bitbucket.org/mmdatafocus/warehouse_backend/models"
	"bitbucket.org/mmdatafocus/warehouse_backend/utils"
	"bitbucket.org/mmdatafocus/warehouse_backend/workflow"
)

func setupIntegration(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "warehouse_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetCorrelationIdInContext(ctx, "itest")
	return ctx
}

func mustCreateProduct(t *testing.T, ctx context.Context, name, sku string) *models.Product {
	t.Helper()
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:  name,
		Sku:   sku,
		Price: "100",
	})
	if err != nil {
		t.Fatalf("CreateProduct %s: %v", sku, err)
	}
	return product
}

func mustCreateWarehouse(t *testing.T, ctx context.Context, name string) *models.Warehouse {
	t.Helper()
	warehouse, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: name})
	if err != nil {
		t.Fatalf("CreateWarehouse %s: %v", name, err)
	}
	return warehouse
}

func quantityOnHand(t *testing.T, productId int) decimal.Decimal {
	t.Helper()
	qty, err := models.QuantityOnHand(config.GetDB(), productId, nil)
	if err != nil {
		t.Fatalf("QuantityOnHand: %v", err)
	}
	return qty
}

func TestDocumentLifecycleWithFifo(t *testing.T) {
	ctx := setupIntegration(t)

	warehouse := mustCreateWarehouse(t, ctx, "Main")
	product := mustCreateProduct(t, ctx, "Widget", "WID-1")

	// Two posted receipts build two lots at different prices.
	_, err := workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		Status:      string(models.DocumentStatusPosted),
		WarehouseId: warehouse.ID,
		Items: []models.NewDocumentItem{
			{ProductId: product.ID, Qty: "100", Price: "10"},
		},
	})
	if err != nil {
		t.Fatalf("first receipt: %v", err)
	}
	_, err = workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		Status:      string(models.DocumentStatusPosted),
		WarehouseId: warehouse.ID,
		Items: []models.NewDocumentItem{
			{ProductId: product.ID, Qty: "50", Price: "12"},
		},
	})
	if err != nil {
		t.Fatalf("second receipt: %v", err)
	}

	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("after receipts: want 150 on hand, got %s", qty)
	}

	// Write off 120: first lot fully, 20 from the second at its own price.
	writeOff, err := workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeWriteOff),
		Status:      string(models.DocumentStatusPosted),
		WarehouseId: warehouse.ID,
		Items: []models.NewDocumentItem{
			{ProductId: product.ID, Qty: "120", Price: "15"},
		},
	})
	if err != nil {
		t.Fatalf("write-off: %v", err)
	}

	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("after write-off: want 30 on hand, got %s", qty)
	}

	var outs []models.InventoryMovement
	err = config.GetDB().
		Where("document_id = ? AND reference_type = ?", writeOff.ID, models.MovementReferenceTypeDocument).
		Order("id ASC").
		Find(&outs).Error
	if err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(outs) != 2 {
		t.Fatalf("want 2 OUT movements, got %d", len(outs))
	}
	if !outs[0].Qty.Equal(decimal.NewFromInt(-100)) || !outs[0].Price.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("first OUT: want -100 @ 10, got %s @ %s", outs[0].Qty, outs[0].Price)
	}
	if !outs[1].Qty.Equal(decimal.NewFromInt(-20)) || !outs[1].Price.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("second OUT: want -20 @ 12, got %s @ %s", outs[1].Qty, outs[1].Price)
	}
	if outs[0].LotId == nil || outs[1].LotId == nil {
		t.Fatalf("covered OUT movements must carry lot ids")
	}

	// Unpost removes the write-off's ledger rows; repost recreates them.
	if _, err := workflow.UnpostDocument(ctx, writeOff.ID); err != nil {
		t.Fatalf("unpost: %v", err)
	}
	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("after unpost: want 150 on hand, got %s", qty)
	}
	if _, err := workflow.UnpostDocument(ctx, writeOff.ID); err != nil {
		t.Fatalf("second unpost must be a no-op: %v", err)
	}
	if _, err := workflow.PostDocument(ctx, writeOff.ID); err != nil {
		t.Fatalf("repost: %v", err)
	}
	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("after repost: want 30 on hand, got %s", qty)
	}

	// Deleting the write-off restores stock completely.
	if err := workflow.DeleteDocumentWithInventory(ctx, writeOff.ID); err != nil {
		t.Fatalf("delete write-off: %v", err)
	}
	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("after delete: want 150 on hand, got %s", qty)
	}
}

// postingLockFree reports whether the advisory lock for the product is held
// by any session. GET_LOCK survives commit, so a workflow that forgets to
// release before committing leaves the lock on a pooled connection and this
// returns false.
func postingLockFree(t *testing.T, productId int) bool {
	t.Helper()
	var free int
	err := config.GetDB().
		Raw("SELECT IS_FREE_LOCK(?)", fmt.Sprintf("inventory:product:%d", productId)).
		Scan(&free).Error
	if err != nil {
		t.Fatalf("IS_FREE_LOCK: %v", err)
	}
	return free == 1
}

func TestLedgerWorkflowsFreePostingLocks(t *testing.T) {
	ctx := setupIntegration(t)

	warehouse := mustCreateWarehouse(t, ctx, "Main")
	product := mustCreateProduct(t, ctx, "Cog", "COG-1")

	assertFree := func(after string) {
		t.Helper()
		if !postingLockFree(t, product.ID) {
			t.Fatalf("posting lock still held after %s", after)
		}
	}

	receipt, err := workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		Status:      string(models.DocumentStatusPosted),
		WarehouseId: warehouse.ID,
		Items:       []models.NewDocumentItem{{ProductId: product.ID, Qty: "100", Price: "10"}},
	})
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	assertFree("create")

	if _, err := workflow.UnpostDocument(ctx, receipt.ID); err != nil {
		t.Fatalf("unpost: %v", err)
	}
	assertFree("unpost")
	if _, err := workflow.PostDocument(ctx, receipt.ID); err != nil {
		t.Fatalf("post: %v", err)
	}
	assertFree("post")

	if _, err := workflow.UpdateDocumentWithInventory(ctx, receipt.ID, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		Status:      string(models.DocumentStatusPosted),
		WarehouseId: warehouse.ID,
		Items:       []models.NewDocumentItem{{ProductId: product.ID, Qty: "90", Price: "10"}},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	assertFree("update")

	order, err := workflow.ProcessOrderWithReserves(ctx, &models.NewOrder{
		WarehouseId: warehouse.ID,
		IsReserved:  true,
		Items:       []models.NewOrderItem{{ProductId: product.ID, Qty: "10", Price: "12"}},
	})
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	shipment, err := workflow.CreateShipment(ctx, &models.NewShipment{
		OrderId: order.ID,
		Status:  string(models.ShipmentStatusShipped),
		Items:   []models.NewShipmentItem{{ProductId: product.ID, Qty: "10", Price: "12"}},
	})
	if err != nil {
		t.Fatalf("shipment: %v", err)
	}
	assertFree("create shipment")
	if _, err := workflow.UpdateShipmentStatus(ctx, shipment.ID, models.ShipmentStatusDraft); err != nil {
		t.Fatalf("unship: %v", err)
	}
	assertFree("shipment status change")
	if err := workflow.DeleteShipment(ctx, shipment.ID); err != nil {
		t.Fatalf("delete shipment: %v", err)
	}
	assertFree("delete shipment")

	if err := workflow.DeleteDocumentWithInventory(ctx, receipt.ID); err != nil {
		t.Fatalf("delete document: %v", err)
	}
	assertFree("delete document")
}

func TestDocumentUpdateReplacesItemsAndLedger(t *testing.T) {
	ctx := setupIntegration(t)

	warehouse := mustCreateWarehouse(t, ctx, "Main")
	product := mustCreateProduct(t, ctx, "Pin", "PIN-1")

	receipt, err := workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		Status:      string(models.DocumentStatusPosted),
		WarehouseId: warehouse.ID,
		Items:       []models.NewDocumentItem{{ProductId: product.ID, Qty: "100", Price: "10"}},
	})
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}

	// Replace, not diff: the new items fully supersede the old ones and the
	// ledger follows.
	updated, err := workflow.UpdateDocumentWithInventory(ctx, receipt.ID, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		Status:      string(models.DocumentStatusPosted),
		WarehouseId: warehouse.ID,
		Items:       []models.NewDocumentItem{{ProductId: product.ID, Qty: "60", Price: "11"}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != receipt.Name {
		t.Fatalf("auto-generated name must survive updates: %q became %q", receipt.Name, updated.Name)
	}
	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("after item replace: want 60 on hand, got %s", qty)
	}
	var movements []models.InventoryMovement
	if err := config.GetDB().Where("document_id = ?", receipt.ID).Find(&movements).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(movements) != 1 || !movements[0].Qty.Equal(decimal.NewFromInt(60)) || !movements[0].Price.Equal(decimal.NewFromInt(11)) {
		t.Fatalf("want a single 60 @ 11 movement, got %+v", movements)
	}

	// Omitting items strips the old ones and their ledger effect.
	stripped, err := workflow.UpdateDocumentWithInventory(ctx, receipt.ID, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		Status:      string(models.DocumentStatusPosted),
		WarehouseId: warehouse.ID,
		Comment:     "emptied",
	})
	if err != nil {
		t.Fatalf("header-only update: %v", err)
	}
	if len(stripped.Items) != 0 {
		t.Fatalf("items must be stripped, got %d", len(stripped.Items))
	}
	if qty := quantityOnHand(t, product.ID); !qty.IsZero() {
		t.Fatalf("stripped document must leave no ledger rows, on hand is %s", qty)
	}
	reloaded, err := models.GetDocument(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Comment != "emptied" || len(reloaded.Items) != 0 {
		t.Fatalf("header not applied or items survived: %+v", reloaded)
	}

	// Creation still requires items.
	_, err = workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		WarehouseId: warehouse.ID,
	})
	if !utils.IsValidationError(err) {
		t.Fatalf("itemless create must fail validation, got %v", err)
	}
}

func TestOversellWritesShortfallAndGoesNegative(t *testing.T) {
	ctx := setupIntegration(t)

	warehouse := mustCreateWarehouse(t, ctx, "Main")
	product := mustCreateProduct(t, ctx, "Gadget", "GAD-1")

	_, err := workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		Status:      string(models.DocumentStatusPosted),
		WarehouseId: warehouse.ID,
		Items: []models.NewDocumentItem{
			{ProductId: product.ID, Qty: "30", Price: "10"},
		},
	})
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}

	writeOff, err := workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeWriteOff),
		Status:      string(models.DocumentStatusPosted),
		WarehouseId: warehouse.ID,
		Items: []models.NewDocumentItem{
			{ProductId: product.ID, Qty: "50", Price: "8"},
		},
	})
	if err != nil {
		t.Fatalf("oversell write-off must succeed: %v", err)
	}

	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(-20)) {
		t.Fatalf("want -20 on hand after oversell, got %s", qty)
	}

	var outs []models.InventoryMovement
	err = config.GetDB().
		Where("document_id = ?", writeOff.ID).
		Order("id ASC").
		Find(&outs).Error
	if err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(outs) != 2 {
		t.Fatalf("want 2 OUT movements, got %d", len(outs))
	}
	shortfall := outs[1]
	if shortfall.LotId != nil {
		t.Fatalf("shortfall movement must not carry a lot id")
	}
	if !shortfall.Qty.Equal(decimal.NewFromInt(-20)) || !shortfall.Price.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("shortfall: want -20 @ 8, got %s @ %s", shortfall.Qty, shortfall.Price)
	}
}

func TestSameDayDocumentNamesDoNotCollide(t *testing.T) {
	ctx := setupIntegration(t)

	warehouse := mustCreateWarehouse(t, ctx, "Main")
	product := mustCreateProduct(t, ctx, "Part", "PRT-1")

	first, err := workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		WarehouseId: warehouse.ID,
		Items:       []models.NewDocumentItem{{ProductId: product.ID, Qty: "1", Price: "1"}},
	})
	if err != nil {
		t.Fatalf("first document: %v", err)
	}
	second, err := workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		WarehouseId: warehouse.ID,
		Items:       []models.NewDocumentItem{{ProductId: product.ID, Qty: "1", Price: "1"}},
	})
	if err != nil {
		t.Fatalf("second document: %v", err)
	}
	if first.Name == second.Name {
		t.Fatalf("same-day names must differ, both are %q", first.Name)
	}

	// Deleting the first must not free its sequence number.
	if err := workflow.DeleteDocumentWithInventory(ctx, first.ID); err != nil {
		t.Fatalf("delete first: %v", err)
	}
	third, err := workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		WarehouseId: warehouse.ID,
		Items:       []models.NewDocumentItem{{ProductId: product.ID, Qty: "1", Price: "1"}},
	})
	if err != nil {
		t.Fatalf("third document: %v", err)
	}
	if third.Name == first.Name || third.Name == second.Name {
		t.Fatalf("sequence reuse: %q collides with an earlier name", third.Name)
	}
}

func TestOrderReservesAffectAvailabilityNotLedger(t *testing.T) {
	ctx := setupIntegration(t)

	warehouse := mustCreateWarehouse(t, ctx, "Main")
	product := mustCreateProduct(t, ctx, "Bolt", "BLT-1")

	_, err := workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		Status:      string(models.DocumentStatusPosted),
		WarehouseId: warehouse.ID,
		Items:       []models.NewDocumentItem{{ProductId: product.ID, Qty: "100", Price: "5"}},
	})
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}

	order, err := workflow.ProcessOrderWithReserves(ctx, &models.NewOrder{
		WarehouseId: warehouse.ID,
		IsReserved:  true,
		Items:       []models.NewOrderItem{{ProductId: product.ID, Qty: "40", Price: "9.50"}},
	})
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("380")) {
		t.Fatalf("total: want 380, got %s", order.TotalAmount)
	}
	if !strings.HasPrefix(order.Name, "Заказ ") {
		t.Fatalf("order name %q missing prefix", order.Name)
	}

	// The ledger is untouched; availability drops by the reserved quantity.
	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("reserves must not write movements, on hand is %s", qty)
	}
	reserved, err := models.ReservedQuantity(config.GetDB(), product.ID, nil)
	if err != nil {
		t.Fatalf("ReservedQuantity: %v", err)
	}
	if !reserved.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("want 40 reserved, got %s", reserved)
	}
	items, err := models.GetInventoryAvailability(ctx, nil)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	var row *models.InventoryAvailabilityItem
	for i := range items {
		if items[i].ID == product.ID {
			row = &items[i]
		}
	}
	if row == nil {
		t.Fatalf("product missing from availability")
	}
	if row.Reserved != 40 || row.Available != 60 {
		t.Fatalf("want reserved 40 / available 60, got %v / %v", row.Reserved, row.Available)
	}

	if err := workflow.RemoveReservesForOrder(ctx, order.ID); err != nil {
		t.Fatalf("remove reserves: %v", err)
	}
	items, err = models.GetInventoryAvailability(ctx, nil)
	if err != nil {
		t.Fatalf("availability after release: %v", err)
	}
	for i := range items {
		if items[i].ID == product.ID && items[i].Available != 100 {
			t.Fatalf("after release: want available 100, got %v", items[i].Available)
		}
	}

	// Toggling the reservation flag rebuilds the reserves from the current items.
	if err := workflow.UpdateOrderReservation(ctx, order.ID, true); err != nil {
		t.Fatalf("re-reserve: %v", err)
	}
	reserved, err = models.ReservedQuantity(config.GetDB(), product.ID, nil)
	if err != nil {
		t.Fatalf("ReservedQuantity after toggle: %v", err)
	}
	if !reserved.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("after re-reserve: want 40 reserved, got %s", reserved)
	}
	if err := workflow.UpdateOrderReservation(ctx, order.ID, false); err != nil {
		t.Fatalf("unreserve: %v", err)
	}
	reserved, err = models.ReservedQuantity(config.GetDB(), product.ID, nil)
	if err != nil {
		t.Fatalf("ReservedQuantity after unreserve: %v", err)
	}
	if !reserved.IsZero() {
		t.Fatalf("after unreserve: want 0 reserved, got %s", reserved)
	}
}

func TestShipmentStatusDrivesLedger(t *testing.T) {
	ctx := setupIntegration(t)

	warehouse := mustCreateWarehouse(t, ctx, "Main")
	product := mustCreateProduct(t, ctx, "Nut", "NUT-1")

	_, err := workflow.CreateDocumentWithInventory(ctx, &models.NewDocument{
		Type:        string(models.DocumentTypeReceipt),
		Status:      string(models.DocumentStatusPosted),
		WarehouseId: warehouse.ID,
		Items:       []models.NewDocumentItem{{ProductId: product.ID, Qty: "80", Price: "4"}},
	})
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}

	order, err := workflow.ProcessOrderWithReserves(ctx, &models.NewOrder{
		WarehouseId: warehouse.ID,
		IsReserved:  true,
		Items:       []models.NewOrderItem{{ProductId: product.ID, Qty: "30", Price: "6"}},
	})
	if err != nil {
		t.Fatalf("order: %v", err)
	}

	shipment, err := workflow.CreateShipment(ctx, &models.NewShipment{
		OrderId: order.ID,
		Items:   []models.NewShipmentItem{{ProductId: product.ID, Qty: "30", Price: "6"}},
	})
	if err != nil {
		t.Fatalf("shipment: %v", err)
	}
	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("draft shipment must not write movements, on hand is %s", qty)
	}

	loaded, err := models.GetShipment(ctx, shipment.ID)
	if err != nil {
		t.Fatalf("GetShipment: %v", err)
	}
	if loaded.OrderId != order.ID || len(loaded.Items) != 1 {
		t.Fatalf("loaded shipment mismatch: %+v", loaded)
	}

	if _, err := workflow.UpdateShipmentStatus(ctx, shipment.ID, models.ShipmentStatusShipped); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("after shipping: want 50 on hand, got %s", qty)
	}

	// Shipped to delivered stays inside the posted states; no ledger change.
	if _, err := workflow.UpdateShipmentStatus(ctx, shipment.ID, models.ShipmentStatusDelivered); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("deliver must not change the ledger, on hand is %s", qty)
	}

	// Back to draft restores the stock; delete after re-shipping restores too.
	if _, err := workflow.UpdateShipmentStatus(ctx, shipment.ID, models.ShipmentStatusDraft); err != nil {
		t.Fatalf("back to draft: %v", err)
	}
	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("after draft: want 80 on hand, got %s", qty)
	}
	if _, err := workflow.UpdateShipmentStatus(ctx, shipment.ID, models.ShipmentStatusShipped); err != nil {
		t.Fatalf("re-ship: %v", err)
	}
	if err := workflow.DeleteShipment(ctx, shipment.ID); err != nil {
		t.Fatalf("delete shipment: %v", err)
	}
	if qty := quantityOnHand(t, product.ID); !qty.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("delete must restore stock, on hand is %s", qty)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("warehouse-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("warehouse-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=warehouse_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
