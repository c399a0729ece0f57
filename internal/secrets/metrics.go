package secrets

import (
	"github.com/rcrowley/go-metrics"
)

// MetricsPrefix prefixes every timer registered by instivault.
const MetricsPrefix = "instivault"

var (
	deriveTimer  = metrics.GetOrRegisterTimer(MetricsPrefix+".secrets.derive", nil)
	encryptTimer = metrics.GetOrRegisterTimer(MetricsPrefix+".secrets.encrypt", nil)
	decryptTimer = metrics.GetOrRegisterTimer(MetricsPrefix+".secrets.decrypt", nil)
)
