package models

import "testing"

func TestCardTypeForDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   CardType
	}{
		{SyncDomainBpSupplier, CardTypeSupplier},
		{SyncDomainBpCustomer, CardTypeCustomer},
		{SyncDomainBpLead, CardTypeLead},
		{SyncDomainItem, ""},
		{"bogus", ""},
	}
	for _, tt := range tests {
		if got := CardTypeForDomain(tt.domain); got != tt.want {
			t.Errorf("CardTypeForDomain(%q) = %q; want %q", tt.domain, got, tt.want)
		}
	}
}

func TestCacheTagForDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{SyncDomainItem, "item-master"},
		{SyncDomainBpSupplier, "bp-master-S"},
		{SyncDomainBpCustomer, "bp-master-C"},
		{SyncDomainBpLead, "bp-master-L"},
	}
	for _, tt := range tests {
		if got := CacheTagForDomain(tt.domain); got != tt.want {
			t.Errorf("CacheTagForDomain(%q) = %q; want %q", tt.domain, got, tt.want)
		}
	}
}

func TestIsValidSyncDomain(t *testing.T) {
	for _, domain := range AllSyncDomains() {
		if !IsValidSyncDomain(domain) {
			t.Errorf("IsValidSyncDomain(%q) = false", domain)
		}
	}
	for _, domain := range []string{"", "items", "bp", "bp-X"} {
		if IsValidSyncDomain(domain) {
			t.Errorf("IsValidSyncDomain(%q) = true", domain)
		}
	}
}

func TestStatusEnums(t *testing.T) {
	if !RequisitionStatusDraft.IsValid() || RequisitionStatus("open").IsValid() {
		t.Error("requisition status validation is wrong")
	}
	if !QuotationStatusAccepted.IsValid() || QuotationStatus("won").IsValid() {
		t.Error("quotation status validation is wrong")
	}
	if !LeadStageConverted.IsValid() || LeadStage("done").IsValid() {
		t.Error("lead stage validation is wrong")
	}
	if !CardTypeSupplier.IsValid() || CardType("X").IsValid() {
		t.Error("card type validation is wrong")
	}
}
