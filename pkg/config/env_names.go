package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names.
const EnvPrefix = "CUROCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "CUROCART_APP_ENV"
	EnvPort     = "CUROCART_APP_PORT"
	EnvRedisURL = "CUROCART_REDIS_URL"

	EnvCartFlatDeliveryFee       = "CUROCART_CART_FLAT_DELIVERY_FEE"
	EnvCartTaxRate               = "CUROCART_CART_TAX_RATE"
	EnvCartFreeDeliveryThreshold = "CUROCART_CART_FREE_DELIVERY_THRESHOLD"
	EnvCartMinOrderAmount        = "CUROCART_CART_MIN_ORDER_AMOUNT"
)
