package ports

// Environments resolves the data access of a deployment environment such as
// "prod" or "test".
type Environments interface {
	CubeSource(env string) (CubeSource, error)
	UsageLogger(env string) (UsageLogger, error)
}
