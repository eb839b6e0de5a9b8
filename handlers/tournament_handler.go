package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/bracket-engine/services"
	"github.com/Dosada05/bracket-engine/storage"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

type buildTournamentInput struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Entrants []string `json:"entrants"`
}

type loadTournamentInput struct {
	Source string `json:"source"`
}

type recordWinnerInput struct {
	EntrantID int `json:"entrant_id"`
}

type saveTournamentInput struct {
	Destination string `json:"destination"`
}

func (h *TournamentHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	sessions := h.tournamentService.List(r.Context())
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": sessions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.tournamentService.ListSnapshots(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"snapshots": snapshots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var input buildTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.tournamentService.Build(r.Context(), input.Key, input.Name, input.Entrants)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/tournaments/"+input.Key)
	if err := writeJSON(w, http.StatusCreated, view, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	key, err := getKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.tournamentService.View(r.Context(), key)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ExportTournament returns the YAML document of the tournament.
func (h *TournamentHandler) ExportTournament(w http.ResponseWriter, r *http.Request) {
	key, err := getKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	data, err := h.tournamentService.Export(r.Context(), key)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="`+key+`.yaml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *TournamentHandler) LoadTournament(w http.ResponseWriter, r *http.Request) {
	key, err := getKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input loadTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.tournamentService.Load(r.Context(), key, input.Source)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ImportTournament replaces the tournament with an uploaded document or seed. The format
// query parameter picks the parser: "document" (default) or "seed".
func (h *TournamentHandler) ImportTournament(w http.ResponseWriter, r *http.Request) {
	key, err := getKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var kind storage.SourceKind
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "document", "yaml":
		kind = storage.SourceDocument
	case "seed", "txt":
		kind = storage.SourceSeed
	default:
		badRequestResponse(w, r, errors.New(`format must be "document" or "seed"`))
		return
	}
	data, err := readBody(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.tournamentService.Import(r.Context(), key, kind, data)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) RestoreTournament(w http.ResponseWriter, r *http.Request) {
	key, err := getKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.tournamentService.Restore(r.Context(), key)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) RecordWinner(w http.ResponseWriter, r *http.Request) {
	key, err := getKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input recordWinnerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.EntrantID <= 0 {
		badRequestResponse(w, r, errors.New("entrant_id must be a positive integer"))
		return
	}
	view, err := h.tournamentService.RecordWinner(r.Context(), key, input.EntrantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) ResetTournament(w http.ResponseWriter, r *http.Request) {
	key, err := getKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.tournamentService.Reset(r.Context(), key)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) SaveTournament(w http.ResponseWriter, r *http.Request) {
	key, err := getKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input saveTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.tournamentService.Save(r.Context(), key, input.Destination); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) DeleteTournament(w http.ResponseWriter, r *http.Request) {
	key, err := getKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	purge := false
	if raw := r.URL.Query().Get("purge"); raw != "" {
		purge, err = strconv.ParseBool(raw)
		if err != nil {
			badRequestResponse(w, r, errors.New("purge must be a boolean"))
			return
		}
	}
	if err := h.tournamentService.Delete(r.Context(), key, purge); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
