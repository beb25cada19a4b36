package logging

type nopLogger struct{}

// NewNop returns a logger that discards everything. Intended for tests.
func NewNop() Interface { return nopLogger{} }

func (nopLogger) WithField(string, interface{}) Interface { return nopLogger{} }
func (nopLogger) WithError(error) Interface               { return nopLogger{} }

func (nopLogger) Debug(string) {}
func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(string) {}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
