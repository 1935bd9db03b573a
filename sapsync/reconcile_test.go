package sapsync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
)

func TestParseErpDate(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"20240115", true, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"19991231", true, time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"", false, time.Time{}},
		{"2024-01-15", false, time.Time{}},
		{"20241301", false, time.Time{}}, // month 13
		{"notadate", false, time.Time{}},
		{"2024011", false, time.Time{}}, // too short
	}

	for _, c := range cases {
		got, ok := parseErpDate(c.in)
		if ok != c.ok {
			t.Fatalf("parseErpDate(%q) ok=%v; want %v", c.in, ok, c.ok)
		}
		if ok && !got.Equal(c.want) {
			t.Fatalf("parseErpDate(%q)=%v; want %v", c.in, got, c.want)
		}
	}
}

func TestRowQualifies_NeverSyncedPassesParseableRows(t *testing.T) {
	// nil cutoff: any row with at least one parseable date qualifies
	if !rowQualifies("20200101", "", nil) {
		t.Fatal("parseable create date should qualify with nil cutoff")
	}
	if !rowQualifies("", "20200101", nil) {
		t.Fatal("parseable update date should qualify with nil cutoff")
	}
	if rowQualifies("", "", nil) {
		t.Fatal("row with no parseable date must be excluded")
	}
	if rowQualifies("garbage", "alsogarbage", nil) {
		t.Fatal("row with unparseable dates must be excluded")
	}
}

func TestRowQualifies_StrictlyAfterCutoff(t *testing.T) {
	cutoff := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// same day as cutoff is NOT after
	if rowQualifies("20240601", "20240601", &cutoff) {
		t.Fatal("dates equal to the cutoff must not qualify")
	}
	if rowQualifies("20240531", "20240530", &cutoff) {
		t.Fatal("dates before the cutoff must not qualify")
	}
	// either date after the cutoff qualifies
	if !rowQualifies("20240602", "", &cutoff) {
		t.Fatal("create date after cutoff should qualify")
	}
	if !rowQualifies("20200101", "20240602", &cutoff) {
		t.Fatal("update date after cutoff should qualify even with old create date")
	}
	// unparseable pair is excluded regardless of cutoff
	if rowQualifies("bad", "bad", &cutoff) {
		t.Fatal("unparseable dates must be excluded")
	}
}

func TestRowQualifies_CutoffWithTimeOfDay(t *testing.T) {
	// a mid-day cutoff excludes rows dated that same day (midnight < noon)
	cutoff := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	if rowQualifies("20240601", "", &cutoff) {
		t.Fatal("row dated the cutoff day should not pass a mid-day cutoff")
	}
	if !rowQualifies("20240602", "", &cutoff) {
		t.Fatal("row dated the next day should pass")
	}
}

func TestSapItemRowToModel(t *testing.T) {
	raw := []byte(`{"ItemCode":"A1000","ItemName":"Widget","ItmsGrpCod":105,"UgpEntry":-1,"Price":"12.5000","CreateDate":"20240101","UpdateDate":"20240215"}`)
	var row sapItemRow
	if err := json.Unmarshal(raw, &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	item := row.toModel()
	if item.ItemCode != "A1000" || item.ItemName != "Widget" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.ItemsGroupCode != "105" || item.UomGroupEntry != "-1" {
		t.Fatalf("numeric ERP fields should be kept as strings: %+v", item)
	}
	if item.Price.String() != "12.5" {
		t.Fatalf("price=%s; want 12.5", item.Price.String())
	}
	if item.CreateDate != "20240101" || item.UpdateDate != "20240215" {
		t.Fatalf("date strings must be stored verbatim: %+v", item)
	}
	if item.Source != models.SourceSap || item.SyncStatus != models.SyncStatusSynced {
		t.Fatalf("sync-owned rows must be tagged sap/synced: %+v", item)
	}
}

func TestSapItemRowToModel_BadPriceDefaultsToZero(t *testing.T) {
	row := sapItemRow{ItemCode: "A1", Price: json.Number("not-a-number")}
	item := row.toModel()
	if !item.Price.IsZero() {
		t.Fatalf("unparseable price should default to zero, got %s", item.Price.String())
	}
}

func TestSapPartnerRowToModel(t *testing.T) {
	raw := []byte(`{"CardCode":"S0001","CardName":"Acme Supply","CardType":"S","GroupCode":"100","Currency":"USD","Phone1":"+15550001111","Address":"1 Main St","CreateDate":"20230501","UpdateDate":"20240301"}`)
	var row sapPartnerRow
	if err := json.Unmarshal(raw, &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	partner := row.toModel(models.CardTypeSupplier)
	if partner.CardCode != "S0001" || partner.CardName != "Acme Supply" {
		t.Fatalf("unexpected partner: %+v", partner)
	}
	if partner.CardType != models.CardTypeSupplier {
		t.Fatalf("card type should come from the sync domain, got %s", partner.CardType)
	}
	if partner.Phone != "+15550001111" {
		t.Fatalf("phone=%q", partner.Phone)
	}
	if partner.Source != models.SourceSap || partner.SyncStatus != models.SyncStatusSynced {
		t.Fatalf("sync-owned rows must be tagged sap/synced: %+v", partner)
	}
}

func TestQueryForDomain(t *testing.T) {
	name, filter := queryForDomain(models.SyncDomainItem)
	if name != "ItemMaster" || filter != "" {
		t.Fatalf("item domain: name=%q filter=%q", name, filter)
	}

	name, filter = queryForDomain(models.SyncDomainBpCustomer)
	if name != "BusinessPartnerMaster" {
		t.Fatalf("bp domain: name=%q", name)
	}
	if filter != "CardType eq 'C'" {
		t.Fatalf("bp domain: filter=%q", filter)
	}

	t.Setenv("SAP_ITEM_QUERY", "CustomItems")
	name, _ = queryForDomain(models.SyncDomainItem)
	if name != "CustomItems" {
		t.Fatalf("env override not honored: %q", name)
	}
}

func TestReconcile_UnknownDomainFails(t *testing.T) {
	result := Reconcile(context.Background(), "nope", 0)
	if !result.Error || result.Status != 400 {
		t.Fatalf("expected 400 failure, got %+v", result)
	}
}
