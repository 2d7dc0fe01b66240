package recon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"BankRecon/api"
	"BankRecon/api/constants"
	"BankRecon/internal/checksum"
	"BankRecon/internal/formats"
	"BankRecon/internal/ingest"
	"BankRecon/internal/matching"
	"BankRecon/internal/model"
	"BankRecon/internal/reconcile"
	"BankRecon/internal/report"

	"github.com/gorilla/mux"
)

// default layouts when an upload names no format
var defaultFormat = map[model.Side]formats.ID{
	model.SideBank:       formats.BancolombiaStatement,
	model.SideAccounting: formats.SiesaAuxiliary,
}

func Health(w http.ResponseWriter, r *http.Request) {
	api.RespondWithData(w, http.StatusOK, map[string]interface{}{"status": constants.HealthStatusOK})
}

func ListFormats(w http.ResponseWriter, r *http.Request) {
	api.RespondWithPayload(w, true, "", formats.List())
}

// InitialData returns the records still pending on each side.
func InitialData(state *reconcile.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := state.Snapshot()
		api.RespondWithData(w, http.StatusOK, map[string]interface{}{
			"bank_transactions":       snap.UnmatchedBank,
			"accounting_transactions": snap.UnmatchedAccounting,
		})
	}
}

// UploadTransactions ingests a multipart file for the side in the path and
// replaces that side's records. The same file in the same format is accepted
// again without touching existing pairs.
func UploadTransactions(state *reconcile.State, pipeline *ingest.Pipeline, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		side, err := model.ParseSide(mux.Vars(r)[constants.RouteVarSide])
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrUnknownSide)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				api.RespondWithError(w, http.StatusRequestEntityTooLarge, constants.ErrUploadTooLarge)
				return
			}
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidUpload)
			return
		}
		file, header, err := r.FormFile(constants.FormFileField)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrFileRequired)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidUpload)
			return
		}

		formatID := formats.ID(strings.TrimSpace(r.URL.Query().Get(constants.QueryFormat)))
		if formatID == "" {
			formatID = formats.ID(strings.TrimSpace(r.FormValue(constants.QueryFormat)))
		}
		if formatID == "" {
			formatID = defaultFormat[side]
		}
		if desc, ok := formats.Lookup(formatID); ok && desc.Side != side {
			api.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf(constants.ErrFormatWrongSide, formatID, desc.Side, side))
			return
		}

		if loaded, fp := state.Fingerprint(side); loaded == formatID && fp != "" {
			if same, _ := checksum.NewChecksumMatcher(fp).Match(data); same {
				api.LogInfo("upload %s: %s is already loaded", side, header.Filename)
				records := state.Records(side)
				api.RespondWithData(w, http.StatusOK, map[string]interface{}{
					"filename":          header.Filename,
					"format":            formatID,
					"message":           fmt.Sprintf(constants.MsgFileAlreadyLoaded, side),
					"transaction_count": len(records),
					"transactions":      records,
					"replaced":          false,
				})
				return
			}
		}

		batch, err := pipeline.Ingest(data, formatID)
		if err != nil {
			respondErr(w, err)
			return
		}
		replaced, err := state.Replace(batch)
		if err != nil {
			respondErr(w, err)
			return
		}
		records := reportedRecords(state, batch, replaced)
		msg := fmt.Sprintf(constants.MsgFileLoaded, side, len(records))
		if !replaced {
			msg = fmt.Sprintf(constants.MsgFileAlreadyLoaded, side)
		}
		api.LogInfo("upload %s: %s parsed as %s, %d transactions", side, header.Filename, formatID, len(batch.Records))
		api.RespondWithData(w, http.StatusOK, map[string]interface{}{
			"filename":          header.Filename,
			"format":            formatID,
			"message":           msg,
			"transaction_count": len(records),
			"transactions":      records,
			"warnings":          batch.Warnings,
			"dropped_no_date":   batch.DroppedNoDate,
			"excluded":          batch.Excluded,
			"replaced":          replaced,
		})
	}
}

// reportedRecords is what a client may reference after an upload: the batch when
// it was loaded, otherwise the records already held for that side.
func reportedRecords(state *reconcile.State, batch *ingest.Batch, replaced bool) []model.Transaction {
	if replaced {
		return batch.Records
	}
	return state.Records(batch.Side)
}

type idRef struct {
	ID string `json:"id"`
}

type autoRequest struct {
	BankTransactions       []idRef `json:"bank_transactions"`
	AccountingTransactions []idRef `json:"accounting_transactions"`
}

// AutoReconcile runs the automatic pass over every pending record, or over the
// records listed in the optional body.
func AutoReconcile(state *reconcile.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req autoRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
				return
			}
		}

		var pairs []model.MatchedPair
		if req.BankTransactions == nil && req.AccountingTransactions == nil {
			pairs = state.AutoMatchPending()
		} else {
			pairs = state.AutoMatch(refs(model.SideBank, req.BankTransactions), refs(model.SideAccounting, req.AccountingTransactions))
		}

		msg := fmt.Sprintf(constants.MsgAutoMatched, len(pairs))
		if len(pairs) == 0 {
			msg = constants.MsgAutoNoMatches
		}
		api.RespondWithData(w, http.StatusOK, map[string]interface{}{
			"message":       msg,
			"matched_pairs": pairs,
		})
	}
}

func refs(side model.Side, ids []idRef) []model.Transaction {
	out := make([]model.Transaction, 0, len(ids))
	for _, ref := range ids {
		out = append(out, model.Transaction{ID: ref.ID, Side: side})
	}
	return out
}

type manualRequest struct {
	BankID       string `json:"bank_transaction_id"`
	AccountingID string `json:"accounting_transaction_id"`
}

type manyToOneRequest struct {
	BankID        string   `json:"bank_transaction_id"`
	AccountingIDs []string `json:"accounting_transaction_ids"`
}

type oneToManyRequest struct {
	AccountingID string   `json:"accounting_transaction_id"`
	BankIDs      []string `json:"bank_transaction_ids"`
}

// ManualReconcile pairs one bank record with one accounting record.
func ManualReconcile(state *reconcile.State) http.HandlerFunc {
	return groupHandler(state, func(r *http.Request) ([]string, []string, error) {
		var req manualRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, err
		}
		return []string{req.BankID}, []string{req.AccountingID}, nil
	})
}

// ManyToOne settles one bank record with several accounting records.
func ManyToOne(state *reconcile.State) http.HandlerFunc {
	return groupHandler(state, func(r *http.Request) ([]string, []string, error) {
		var req manyToOneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, err
		}
		return []string{req.BankID}, req.AccountingIDs, nil
	})
}

// OneToMany settles one accounting record with several bank records.
func OneToMany(state *reconcile.State) http.HandlerFunc {
	return groupHandler(state, func(r *http.Request) ([]string, []string, error) {
		var req oneToManyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, err
		}
		return req.BankIDs, []string{req.AccountingID}, nil
	})
}

func groupHandler(state *reconcile.State, decode func(*http.Request) ([]string, []string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bankIDs, accIDs, err := decode(r)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		res, err := state.ProposeGroup(bankIDs, accIDs)
		if err != nil {
			respondErr(w, err)
			return
		}

		msg := fmt.Sprintf(constants.MsgManualMatched, len(res.Pairs))
		if res.Warning != "" {
			msg = constants.MsgAmountWarningPrefix + res.Warning + ". " + msg
		}
		fields := map[string]interface{}{
			"message":               msg,
			"shape":                 res.Shape,
			"warning":               res.Warning,
			"difference":            res.Difference.StringFixed(2),
			"matched_pairs_created": res.Pairs,
		}
		if res.Shape == matching.ShapeOneToOne {
			fields["matched_pair"] = res.Pairs[0]
		}
		api.RespondWithData(w, http.StatusOK, fields)
	}
}

func MatchedPairs(state *reconcile.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.RespondWithPayload(w, true, "", state.Pairs())
	}
}

func ResetPairs(state *reconcile.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := state.ResetPairs()
		api.RespondWithData(w, http.StatusOK, map[string]interface{}{
			"message": fmt.Sprintf(constants.MsgPairsReset, n),
			"removed": n,
		})
	}
}

// ClearData wipes everything, but only when the body confirms it.
func ClearData(state *reconcile.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]bool
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrClearNotConfirmed)
			return
		}
		if !req[constants.ClearConfirmKey] {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrClearNotConfirmed)
			return
		}
		state.Clear()
		api.RespondWithData(w, http.StatusOK, map[string]interface{}{"message": constants.MsgDataCleared})
	}
}

// Export streams the Matched / Pending workbook.
func Export(state *reconcile.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bank, acc, pairs := state.Contents()
		var buf bytes.Buffer
		if err := report.WriteWorkbook(&buf, bank, acc, pairs); err != nil {
			api.LogError("export: %v", err)
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrExportFailed)
			return
		}
		w.Header().Set(constants.ContentTypeText, constants.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", constants.ExportFileName))
		w.Write(buf.Bytes())
	}
}
