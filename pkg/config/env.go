package config

// EnvPrefix is handed to envconfig. Fields carry their full variable name as
// the tag, which envconfig falls back to after the prefixed lookup.
const EnvPrefix = "HOURBID"

const (
	AppEnvLocal = "local"
	AppEnvDev   = "dev"
	AppEnvProd  = "prod"
)

// SpreadsheetURLPlaceholder is the value shipped in sample env files.
const SpreadsheetURLPlaceholder = "SPREADSHEET_URL"

const (
	EnvAppEnv         = "HOURBID_APP_ENV"
	EnvLogLevel       = "HOURBID_LOG_LEVEL"
	EnvLog            = "HOURBID_LOG"
	EnvDateRange      = "HOURBID_DATE_RANGE"
	EnvSpreadsheetURL = "HOURBID_SPREADSHEET_URL"
	EnvCampaignLabel  = "HOURBID_CAMPAIGN_LABEL"
	EnvIncludeSearch  = "HOURBID_INCLUDE_SEARCH"
	EnvIncludeShop    = "HOURBID_INCLUDE_SHOPPING"
	EnvMinBid         = "HOURBID_MIN_BID"
	EnvMaxBid         = "HOURBID_MAX_BID"
	EnvTemplateSheet  = "HOURBID_TEMPLATE_SHEET"
	EnvStrictManual   = "HOURBID_STRICT_MANUAL_BIDDING"
	EnvCompareToday   = "HOURBID_COMPARE_TODAY_CONVERSION_RATE"

	EnvAdsDeveloperToken = "HOURBID_ADS_DEVELOPER_TOKEN"
	EnvAdsCustomerID     = "HOURBID_ADS_CUSTOMER_ID"
	EnvAdsClientID       = "HOURBID_ADS_CLIENT_ID"
	EnvAdsClientSecret   = "HOURBID_ADS_CLIENT_SECRET"
	EnvAdsRefreshToken   = "HOURBID_ADS_REFRESH_TOKEN"

	EnvRedisURL     = "HOURBID_REDIS_URL"
	EnvDBDSN        = "HOURBID_DB_DSN"
	EnvDBDriver     = "HOURBID_DB_DRIVER"
	EnvGCPProjectID = "HOURBID_GCP_PROJECT_ID"
	EnvBQDataset    = "HOURBID_BIGQUERY_DATASET"
	EnvCronInterval = "HOURBID_CRON_INTERVAL"
)
