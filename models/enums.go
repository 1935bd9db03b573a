package models

// SAP Business One card types partitioning the business partner master.
type CardType string

const (
	CardTypeSupplier CardType = "S"
	CardTypeCustomer CardType = "C"
	CardTypeLead     CardType = "L"
)

func (c CardType) IsValid() bool {
	switch c {
	case CardTypeSupplier, CardTypeCustomer, CardTypeLead:
		return true
	}
	return false
}

// master record origin
type SourceType string

const (
	SourceSap    SourceType = "sap"
	SourcePortal SourceType = "portal"
)

type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusPending SyncStatus = "pending"
	SyncStatusError   SyncStatus = "error"
)

// sync domain codes, one SyncMeta row each
const (
	SyncDomainItem       = "item"
	SyncDomainBpSupplier = "bp-S"
	SyncDomainBpCustomer = "bp-C"
	SyncDomainBpLead     = "bp-L"
)

func AllSyncDomains() []string {
	return []string{SyncDomainItem, SyncDomainBpSupplier, SyncDomainBpCustomer, SyncDomainBpLead}
}

func IsValidSyncDomain(domain string) bool {
	switch domain {
	case SyncDomainItem, SyncDomainBpSupplier, SyncDomainBpCustomer, SyncDomainBpLead:
		return true
	}
	return false
}

// CardTypeForDomain returns the card type of a business partner domain ("" for item).
func CardTypeForDomain(domain string) CardType {
	switch domain {
	case SyncDomainBpSupplier:
		return CardTypeSupplier
	case SyncDomainBpCustomer:
		return CardTypeCustomer
	case SyncDomainBpLead:
		return CardTypeLead
	}
	return ""
}

// CacheTagForDomain maps a sync domain to the cached list it invalidates.
func CacheTagForDomain(domain string) string {
	if domain == SyncDomainItem {
		return "item-master"
	}
	return "bp-master-" + string(CardTypeForDomain(domain))
}

const (
	SyncRunStatusQueued  = "queued"
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
)

const (
	SyncTriggeredManual   = "manual"
	SyncTriggeredRetry    = "retry"
	SyncTriggeredSchedule = "schedule"
)

type LeadStage string

const (
	LeadStageNew       LeadStage = "new"
	LeadStageContacted LeadStage = "contacted"
	LeadStageQualified LeadStage = "qualified"
	LeadStageConverted LeadStage = "converted"
	LeadStageLost      LeadStage = "lost"
)

func (s LeadStage) IsValid() bool {
	switch s {
	case LeadStageNew, LeadStageContacted, LeadStageQualified, LeadStageConverted, LeadStageLost:
		return true
	}
	return false
}

type RequisitionStatus string

const (
	RequisitionStatusDraft     RequisitionStatus = "draft"
	RequisitionStatusSubmitted RequisitionStatus = "submitted"
	RequisitionStatusApproved  RequisitionStatus = "approved"
	RequisitionStatusRejected  RequisitionStatus = "rejected"
)

func (s RequisitionStatus) IsValid() bool {
	switch s {
	case RequisitionStatusDraft, RequisitionStatusSubmitted, RequisitionStatusApproved, RequisitionStatusRejected:
		return true
	}
	return false
}

type QuotationStatus string

const (
	QuotationStatusOpen     QuotationStatus = "open"
	QuotationStatusAccepted QuotationStatus = "accepted"
	QuotationStatusRejected QuotationStatus = "rejected"
)

func (s QuotationStatus) IsValid() bool {
	switch s {
	case QuotationStatusOpen, QuotationStatusAccepted, QuotationStatusRejected:
		return true
	}
	return false
}
