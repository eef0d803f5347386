package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldBillKind    = "bill_kind"
	FieldBillStatus  = "bill_status"
	FieldAmount      = "amount"
	FieldDueDate     = "due_date"
	FieldCategory    = "category"
	FieldSender      = "sender"
	FieldRecipient   = "recipient"
	FieldMessageType = "message_type"
	FieldReminderID  = "reminder_id"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentStorage     = "storage"
	ComponentTransaction = "transaction"
	ComponentBill        = "bill"
	ComponentReminder    = "reminder"
	ComponentWebhook     = "webhook"
	ComponentWhatsApp    = "whatsapp"
	ComponentAI          = "ai"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentAuth        = "auth"
	ComponentCache       = "cache"
	ComponentRateLimit   = "rate_limit"
	ComponentTrace       = "trace"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpExpand   = "expand"
	OpDispatch = "dispatch"
	OpClassify = "classify"
	OpSend     = "send"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
