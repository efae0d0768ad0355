package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fnh_http_requests_total",
		Help: "Total HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fnh_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	ChargesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fnh_charges_created_total",
		Help: "Charges created by reference type",
	}, []string{"ref_type"})

	PaymentsCollectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fnh_payments_collected_total",
		Help: "Payments collected by method",
	}, []string{"method"})

	PaymentsCollectedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fnh_payments_collected_amount",
		Help: "Amount collected by method, in taka",
	}, []string{"method"})

	RefundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fnh_refunds_total",
		Help: "Cash refunds handed out",
	})

	MedicineSalesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fnh_medicine_sales_total",
		Help: "Completed medicine sales",
	})

	TxConflictRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fnh_tx_conflict_retries_total",
		Help: "Serializable transaction retries after conflicts",
	})

	OpenShifts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fnh_open_shifts",
		Help: "Shifts currently open at the front desk",
	})

	LowStockItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fnh_low_stock_items",
		Help: "Stock items at or below the reorder threshold",
	})

	DriftedAccounts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fnh_drifted_accounts",
		Help: "Accounts whose stored totals disagree with their ledger rows",
	})

	ActiveAdmissions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fnh_active_admissions",
		Help: "Patients currently admitted",
	})
)
