// Package http exposes the raid service as a small JSON API.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/extraction.zone/internal/platform/errors"
	"github.com/louisbranch/extraction.zone/internal/raid/service"
)

// Server routes raid API requests to the service.
type Server struct {
	svc *service.Service
}

// NewServer wraps a raid service.
func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

// RegisterRoutes attaches every raid endpoint to the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/raid/start", s.handleStart)
	mux.HandleFunc("/api/raid/end", s.handleEnd)
	mux.HandleFunc("/api/raid/attack", s.handleAttack)
	mux.HandleFunc("/api/raid/hit", s.handleHit)
	mux.HandleFunc("/api/raid/explore", s.handleExplore)
	mux.HandleFunc("/api/raid/choose", s.handleChoose)
	mux.HandleFunc("/api/raid/loot", s.handleLoot)
	mux.HandleFunc("/api/raid/equip", s.handleEquip)
	mux.HandleFunc("/api/raid/encounter/next", s.handleNextEncounter)
	mux.HandleFunc("/api/raid/starter", s.handleStarter)
	mux.HandleFunc("/api/raid/state", s.handleState)
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response failed error=%v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	body := errorBody{Code: string(code), Message: err.Error()}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		body.Message = domainErr.Message
		body.Details = domainErr.Metadata
	}
	writeJSON(w, code.HTTPStatus(), errorResponse{Error: body})
}

// decodeBody parses a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorBody{
			Code:    string(apperrors.CodeUnknown),
			Message: "invalid request body",
		}})
		return false
	}
	return true
}

type playerRequest struct {
	PlayerKey string `json:"player_key"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.StartRaid(r.Context(), req.PlayerKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "in_raid",
		"loadout": res.Loadout,
		"carried": res.Carried,
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		playerRequest
		Result string `json:"result"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.EndRaid(r.Context(), req.PlayerKey, service.RaidResult(req.Result))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":           res.Result,
		"stacks_banked":    res.StacksBanked,
		"instances_banked": res.InstancesBanked,
		"instances_lost":   res.InstancesLost,
	})
}

func (s *Server) handleAttack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		playerRequest
		Kind   string `json:"kind"`
		ItemID string `json:"item_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.Attack(r.Context(), req.PlayerKey, req.Kind, req.ItemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":         res.Kind,
		"damage":       res.Damage,
		"missed":       res.Missed,
		"killed":       res.Killed,
		"already_dead": res.AlreadyDead,
		"hp_before":    res.HPBefore,
		"hp_after":     res.HPAfter,
		"log":          res.Log,
	})
}

func (s *Server) handleHit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		playerRequest
		Damage int `json:"damage"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.ApplyIncomingHit(r.Context(), req.PlayerKey, req.Damage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"raw_damage":      res.RawDamage,
		"final_damage":    res.FinalDamage,
		"mitigated":       res.Mitigated,
		"durability_loss": res.DurabilityLoss,
		"armor_broken":    res.ArmorBroken,
	})
}

func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.ExploreEvent(r.Context(), req.PlayerKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event":      res.Presentation,
		"token":      res.Token,
		"expires_at": res.ExpiresAt.Unix(),
	})
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		playerRequest
		Token    string `json:"token"`
		ChoiceID string `json:"choice_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.ChooseEvent(r.Context(), req.PlayerKey, req.Token, req.ChoiceID)
	if err != nil {
		writeError(w, err)
		return
	}
	payload := map[string]any{
		"event":       res.Outcome.Presentation,
		"terminal":    res.Outcome.Terminal,
		"meta":        res.Outcome.Meta,
		"loot_stacks": res.Outcome.LootStacks,
		"log":         res.Outcome.Log,
	}
	if res.Token != "" {
		payload["token"] = res.Token
		payload["expires_at"] = res.ExpiresAt.Unix()
	}
	if res.Spawned != nil {
		payload["spawned"] = res.Spawned
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleLoot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		playerRequest
		Action string `json:"action"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.TakeLoot(r.Context(), req.PlayerKey, service.LootAction(req.Action))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"action": res.Action,
		"stacks": res.Stacks,
		"gear":   res.Gear,
	})
}

func (s *Server) handleEquip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		playerRequest
		Slot       string `json:"slot"`
		InstanceID string `json:"instance_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.svc.Equip(r.Context(), req.PlayerKey, req.Slot, req.InstanceID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"slot":        req.Slot,
		"instance_id": req.InstanceID,
	})
}

func (s *Server) handleNextEncounter(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.NextEncounter(r.Context(), req.PlayerKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"encounter": res.Encounter,
		"reused":    res.Reused,
	})
}

func (s *Server) handleStarter(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.StarterGrant(r.Context(), req.PlayerKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stones":         res.Stones,
		"melee_item":     res.MeleeItemID,
		"melee_instance": res.MeleeInstance,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	playerKey := strings.TrimSpace(r.URL.Query().Get("player_key"))
	snap, err := s.svc.State(r.Context(), playerKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"player_key":   snap.PlayerKey,
		"status":       snap.Status,
		"bag_stacks":   snap.Bag.Stacks,
		"bag_gear":     snap.Bag.Instances,
		"throw_pouch":  snap.ThrowPouch,
		"encounter":    snap.Context.Encounter,
		"meta":         snap.Context.Meta,
		"loadout":      snap.Context.Loadout,
		"event_active": snap.EventActive,
	})
}
