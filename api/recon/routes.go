package recon

import (
	"net/http"

	"BankRecon/internal/ingest"
	"BankRecon/internal/reconcile"

	"github.com/gorilla/mux"
)

func NewRouter(state *reconcile.State, pipeline *ingest.Pipeline, maxUploadBytes int64) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", Health).Methods(http.MethodGet)
	router.HandleFunc("/api/formats", ListFormats).Methods(http.MethodGet)

	tx := router.PathPrefix("/api/transactions").Subrouter()
	tx.HandleFunc("/initial", InitialData(state)).Methods(http.MethodGet)
	tx.HandleFunc("/upload/{side}", UploadTransactions(state, pipeline, maxUploadBytes)).Methods(http.MethodPost)
	tx.HandleFunc("/reconcile/auto", AutoReconcile(state)).Methods(http.MethodPost)
	tx.HandleFunc("/reconcile/manual", ManualReconcile(state)).Methods(http.MethodPost)
	tx.HandleFunc("/reconcile/manual/many_to_one", ManyToOne(state)).Methods(http.MethodPost)
	tx.HandleFunc("/reconcile/manual/one_to_many", OneToMany(state)).Methods(http.MethodPost)
	tx.HandleFunc("/reconcile/reset", ResetPairs(state)).Methods(http.MethodPost)
	tx.HandleFunc("/matched", MatchedPairs(state)).Methods(http.MethodGet)
	tx.HandleFunc("/export", Export(state)).Methods(http.MethodGet)

	router.HandleFunc("/api/admin/clear_data", ClearData(state)).Methods(http.MethodPost)

	return router
}
