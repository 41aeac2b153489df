package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldEntity     = "entity"
	FieldTxID       = "transaction_id"
	FieldTxType     = "transaction_type"
	FieldAmount     = "amount"
	FieldCategoryID = "category_id"
	FieldCardID     = "credit_card_id"
	FieldMonth      = "month"
	FieldRangeStart = "range_start"
	FieldRangeEnd   = "range_end"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentGateway = "gateway"
	ComponentStore   = "store"
	ComponentSession = "session"
	ComponentBus     = "bus"
	ComponentAuth    = "auth"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpStats    = "stats"
	OpSignIn   = "sign_in"
	OpSignOut  = "sign_out"
	OpRefresh  = "refresh"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
