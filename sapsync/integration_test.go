package sapsync_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/config"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/sapsync"
	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

// fakeServiceLayer serves the Login + SQLQueries surface with mutable rows.
type fakeServiceLayer struct {
	mu    sync.Mutex
	items []map[string]interface{}
	fail  bool
}

func (f *fakeServiceLayer) setItems(items []map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
}

func (f *fakeServiceLayer) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeServiceLayer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/b1s/v1/Login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "B1SESSION", Value: "test-session"})
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/b1s/v1/SQLQueries('ItemMaster')/List", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fail {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"down"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"value": f.items})
	})
	return mux
}

func itemRow(code, name, createDate, updateDate string, price float64) map[string]interface{} {
	return map[string]interface{}{
		"ItemCode":   code,
		"ItemName":   name,
		"ItmsGrpCod": 100,
		"UgpEntry":   -1,
		"Price":      price,
		"CreateDate": createDate,
		"UpdateDate": updateDate,
	}
}

func TestReconcileLifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "omega_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	erp := &fakeServiceLayer{}
	server := httptest.NewServer(erp.handler())
	t.Cleanup(server.Close)
	t.Setenv("SAP_BASE_URL", server.URL)
	t.Setenv("SAP_COMPANY_DB", "TESTDB")
	t.Setenv("SAP_USERNAME", "manager")
	t.Setenv("SAP_PASSWORD", "secret")

	ctx = utils.SetUsernameInContext(ctx, "sync-test")

	db := config.GetDB()
	countItems := func() int64 {
		var n int64
		if err := db.Model(&models.Item{}).Count(&n).Error; err != nil {
			t.Fatalf("count items: %v", err)
		}
		return n
	}

	// --- bulk import into an empty table ---
	erp.setItems([]map[string]interface{}{
		itemRow("A1000", "Widget", "20240101", "20240101", 10),
		itemRow("A2000", "Gadget", "20240102", "20240301", 25.5),
		itemRow("A3000", "Sprocket", "20240103", "20240103", 7),
	})

	result := sapsync.Reconcile(ctx, models.SyncDomainItem, 0)
	if result.Error {
		t.Fatalf("bulk reconcile failed: %+v", result)
	}
	if result.RecordsSynced != 3 {
		t.Fatalf("bulk records=%d; want 3", result.RecordsSynced)
	}
	if got := countItems(); got != 3 {
		t.Fatalf("items after bulk=%d; want 3", got)
	}

	meta, err := models.GetSyncMeta(ctx, models.SyncDomainItem)
	if err != nil || meta == nil || meta.LastSyncAt == nil {
		t.Fatalf("sync meta after bulk: meta=%+v err=%v", meta, err)
	}
	firstSyncAt := *meta.LastSyncAt

	var imported models.Item
	if err := db.Where("item_code = ?", "A1000").First(&imported).Error; err != nil {
		t.Fatalf("fetch imported item: %v", err)
	}
	if imported.Source != models.SourceSap || imported.SyncStatus != models.SyncStatusSynced {
		t.Fatalf("imported item not tagged sap/synced: %+v", imported)
	}

	// --- idempotence: unchanged remote data syncs nothing new ---
	result = sapsync.Reconcile(ctx, models.SyncDomainItem, 0)
	if result.Error {
		t.Fatalf("idempotent reconcile failed: %+v", result)
	}
	if result.RecordsSynced != 0 {
		t.Fatalf("idempotent records=%d; want 0 (all rows dated before last sync)", result.RecordsSynced)
	}
	if got := countItems(); got != 3 {
		t.Fatalf("items after idempotent run=%d; want 3", got)
	}

	// prime the tagged list cache, then create a portal-owned row the ERP
	// does not know about; the committed row must be served on the next read
	primed, err := models.GetItems(ctx)
	if err != nil {
		t.Fatalf("GetItems (prime): %v", err)
	}
	portal, err := models.CreateItem(ctx, &models.NewItem{ItemCode: "P9000", ItemName: "Portal only"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	afterCreate, err := models.GetItems(ctx)
	if err != nil {
		t.Fatalf("GetItems (after create): %v", err)
	}
	if len(afterCreate) != len(primed)+1 {
		t.Fatalf("cached list not invalidated by create: %d -> %d items", len(primed), len(afterCreate))
	}
	foundPortal := false
	for _, it := range afterCreate {
		if it.ItemCode == "P9000" {
			foundPortal = true
		}
	}
	if !foundPortal {
		t.Fatal("created item missing from the list served after commit")
	}

	// --- incremental: only rows dated strictly after the last sync qualify ---
	tomorrow := time.Now().Add(24 * time.Hour).Format("20060102")
	erp.setItems([]map[string]interface{}{
		itemRow("A1000", "Widget v2", "20240101", tomorrow, 11), // updated
		itemRow("A2000", "Gadget", "20240102", "20240301", 25.5), // stale, excluded
		itemRow("A4000", "Flange", tomorrow, tomorrow, 99),       // new
		itemRow("A5000", "Ghost", "bad-date", "also-bad", 1),     // unparseable, excluded
	})

	result = sapsync.Reconcile(ctx, models.SyncDomainItem, 0)
	if result.Error {
		t.Fatalf("incremental reconcile failed: %+v", result)
	}
	if result.RecordsSynced != 2 {
		t.Fatalf("incremental records=%d; want 2 (one update, one insert)", result.RecordsSynced)
	}

	var updated models.Item
	if err := db.Where("item_code = ?", "A1000").First(&updated).Error; err != nil {
		t.Fatalf("fetch updated item: %v", err)
	}
	if updated.ItemName != "Widget v2" || updated.Price.String() != "11" {
		t.Fatalf("upsert did not overwrite fields: %+v", updated)
	}

	var ghostCount int64
	db.Model(&models.Item{}).Where("item_code = ?", "A5000").Count(&ghostCount)
	if ghostCount != 0 {
		t.Fatal("row with unparseable dates must not be imported")
	}

	// local rows absent from the remote set survive
	var portalAfter models.Item
	if err := db.Where("id = ?", portal.ID).First(&portalAfter).Error; err != nil {
		t.Fatalf("portal row was deleted by sync: %v", err)
	}

	meta, err = models.GetSyncMeta(ctx, models.SyncDomainItem)
	if err != nil || meta == nil || meta.LastSyncAt == nil {
		t.Fatalf("sync meta after incremental: meta=%+v err=%v", meta, err)
	}
	if !meta.LastSyncAt.After(firstSyncAt) {
		t.Fatalf("LastSyncAt did not advance: first=%v now=%v", firstSyncAt, meta.LastSyncAt)
	}
	advancedSyncAt := *meta.LastSyncAt

	// --- remote failure: failure status, no writes, no meta advance ---
	before := countItems()
	erp.setFail(true)

	result = sapsync.Reconcile(ctx, models.SyncDomainItem, 0)
	if !result.Error {
		t.Fatalf("reconcile against a failing remote must report failure: %+v", result)
	}
	if got := countItems(); got != before {
		t.Fatalf("items changed on failed run: %d -> %d", before, got)
	}
	meta, err = models.GetSyncMeta(ctx, models.SyncDomainItem)
	if err != nil || meta == nil || meta.LastSyncAt == nil {
		t.Fatalf("sync meta after failed run: meta=%+v err=%v", meta, err)
	}
	if !meta.LastSyncAt.Equal(advancedSyncAt) {
		t.Fatalf("LastSyncAt moved on a failed run: %v -> %v", advancedSyncAt, meta.LastSyncAt)
	}
	erp.setFail(false)

	// --- unknown domain is rejected without touching anything ---
	result = sapsync.Reconcile(ctx, "bogus", 0)
	if !result.Error || result.Status != 400 {
		t.Fatalf("unknown domain: %+v", result)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("omega-test-redis-%d", time.Now().UnixNano())
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
	name := fmt.Sprintf("omega-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=omega_test",
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
