package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(adminLoginTotal) }

var adminLoginTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tnt_admin_login_total",
		Help: "Admin API login attempts.",
	},
	[]string{"status"}, // 'authorized', 'unauthorized'
)

func IncAdminLogin(status string) {
	adminLoginTotal.WithLabelValues(norm(status)).Inc()
}
