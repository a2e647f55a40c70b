package contextkeys

// Custom type to avoid context key collisions.
type contextKey string

// DBContextKey stores the *gorm.DB (pool or transaction) in context.
const DBContextKey = contextKey("db")
