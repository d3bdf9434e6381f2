package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldUserID        = "user_id"
	FieldAccountID     = "account_id"
	FieldTransactionID = "transaction_id"
	FieldTransferGroup = "transfer_group_id"
	FieldAmount        = "amount"
	FieldDescription   = "description"
	FieldCategory      = "category"
	FieldOrigin        = "origin"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentLedger     = "ledger"
	ComponentClassifier = "classifier"
	ComponentInsights   = "insights"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
)
