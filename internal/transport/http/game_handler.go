package http

import (
	"context"
	"strconv"

	"checkers/internal/board"
	"checkers/internal/core"
	"checkers/internal/service"
	"checkers/internal/transport"

	"github.com/gofiber/fiber/v2"
)

// CreateGame starts a session with the requested players and layout
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req := body[core.CreateGameRequest](c)
	if req == nil {
		return validationBypass(c)
	}

	st, err := h.svc.CreateGame(service.GameOptions{
		Black:    req.Black.Type,
		White:    req.White.Type,
		Position: req.Position,
		SaveID:   req.SaveID,
		Continue: req.Continue,
	})
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(transport.NewGameResponse(st))
}

// GetGame returns the current state. With wait=true it long-polls until the
// version differs from the one given.
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}

	if c.QueryBool("wait") {
		version, err := strconv.ParseUint(c.Query("version", "0"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "invalid version",
				Code:    core.ErrInvalidRequest,
				Details: "version must be a non-negative integer",
			})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), service.WaitTimeout)
		defer cancel()

		st, err := h.svc.WaitForChange(ctx, id, version)
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(transport.NewGameResponse(st))
	}

	st, err := h.svc.GetGame(id)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(transport.NewGameResponse(st))
}

// DeleteGame stops a session
func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	if err := h.svc.DeleteGame(id); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MakeMove submits a drag from origin to target. Rejected input is still a
// 200: the response carries the NONE move and its reason.
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	req := body[core.MoveRequest](c)
	if req == nil {
		return validationBypass(c)
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	m, st, err := h.svc.Move(ctx, id, transport.FromDTO(req.Origin), transport.FromDTO(req.Target))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(core.MoveResponse{
		Accepted: !m.IsNone(),
		Move:     transport.NewMoveInfo(m),
		Game:     transport.NewGameResponse(st),
	})
}

// ChangePlayer swaps one side between human and computer and restarts
func (h *HTTPHandler) ChangePlayer(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	req := body[core.ChangePlayerRequest](c)
	if req == nil {
		return validationBypass(c)
	}
	team, err := core.ParseTeam(req.Team)
	if err != nil || team == core.TeamNone {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error: "invalid team",
			Code:  core.ErrInvalidRequest,
		})
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	applied, st, err := h.svc.ChangePlayer(ctx, id, team, req.Type)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(core.ChangePlayerResponse{Applied: applied, Game: transport.NewGameResponse(st)})
}

// Restart starts over from the opening, a position or a save
func (h *HTTPHandler) Restart(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	req := body[core.RestartRequest](c)
	if req == nil {
		return validationBypass(c)
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	var (
		applied bool
		st      service.GameState
		err     error
	)
	switch {
	case req.SaveID != "":
		applied, st, err = h.svc.LoadSave(ctx, id, req.SaveID)
	case req.Position != "":
		var b *board.Board
		if b, err = board.ParsePosition(req.Position, h.svc.Rules()); err == nil {
			data := b.Save()
			applied, st, err = h.svc.Restart(ctx, id, &data)
		}
	default:
		applied, st, err = h.svc.Restart(ctx, id, nil)
	}
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(core.RestartResponse{Applied: applied, Game: transport.NewGameResponse(st)})
}

// ToggleHighlighting flips legal-move highlighting for human turns
func (h *HTTPHandler) ToggleHighlighting(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	on, err := h.svc.ToggleHighlighting(ctx, id)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(core.HighlightResponse{UserMoveHighlighting: on})
}

// GetBoard returns the position and an ASCII rendering
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}

	st, err := h.svc.GetGame(id)
	if err != nil {
		return sendError(c, err)
	}
	b, err := st.Snapshot.Board(h.svc.Rules())
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(core.BoardResponse{
		Position: st.Snapshot.Position,
		Board:    b.ToASCII(),
	})
}

// SaveGame stores the current state under a name
func (h *HTTPHandler) SaveGame(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}
	req := body[core.SaveRequest](c)
	if req == nil {
		return validationBypass(c)
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	rec, err := h.svc.Save(ctx, id, req.Name)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(transport.NewSaveResponse(rec))
}

// ListSaves returns saves, optionally filtered by ?name=
func (h *HTTPHandler) ListSaves(c *fiber.Ctx) error {
	records, err := h.svc.ListSaves(c.Query("name"))
	if err != nil {
		return sendError(c, err)
	}

	resp := core.SaveListResponse{Saves: make([]core.SaveResponse, len(records))}
	for i, rec := range records {
		resp.Saves[i] = transport.NewSaveResponse(rec)
	}
	return c.JSON(resp)
}

func (h *HTTPHandler) DeleteSave(c *fiber.Ctx) error {
	saveID := c.Params("saveId")
	if !isValidUUID(saveID) {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid save ID format",
			Code:    core.ErrInvalidRequest,
			Details: "save ID must be a valid UUID",
		})
	}
	if err := h.svc.DeleteSave(saveID); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
