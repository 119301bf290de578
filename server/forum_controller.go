package server

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hupe1980/lyceum"
	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/forum"
	"github.com/hupe1980/lyceum/logging"
	"github.com/hupe1980/lyceum/transcript"
)

type forumController struct {
	lyc    *lyceum.Lyceum
	logger logging.Logger
}

func newForumController(lyc *lyceum.Lyceum, logger logging.Logger) *forumController {
	return &forumController{lyc: lyc, logger: logger}
}

func (fc *forumController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/forums")
	h.Post("", fc.Create)
	h.Get("", fc.List)
	h.Get(":id", fc.Show)
	h.Delete(":id", fc.Delete)

	h.Get(":id/turns", fc.Turns)
	h.Get(":id/references", fc.References)
	h.Post(":id/address", fc.Address)
	h.Post(":id/poll", fc.Poll)

	h.Post(":id/flags", fc.Flag)
	h.Get(":id/flags", fc.Flags)
	h.Delete(":id/flags/:index", fc.RemoveFlag)
	h.Post(":id/flags/:index/select", fc.SelectFlag)
	h.Delete(":id/pending", fc.CancelPending)
	h.Post(":id/drilldown", fc.DrillDown)

	h.Post(":id/paper", fc.Paper)
	h.Post(":id/clear", fc.Clear)
	h.Put(":id/mode", fc.SetMode)
	h.Get(":id/export", fc.Export)

	h.Post(":id/documents", fc.UploadDocument)
	h.Delete(":id/documents", fc.ClearDocument)
}

func (fc *forumController) forum(c *fiber.Ctx) (*forum.Forum, error) {
	return fc.lyc.Forums().Get(c.Params("id"))
}

func (fc *forumController) view(turns []core.Turn) []TurnView {
	reg := fc.lyc.Registry()
	out := make([]TurnView, len(turns))
	for i, t := range turns {
		out[i] = TurnView{Turn: t, Label: reg.Label(t.Speaker), Icon: reg.Icon(t.Speaker)}
	}
	return out
}

// dispatch runs an action and renders its turns, attaching resubmission
// details to generation failures.
func (fc *forumController) dispatch(c *fiber.Ctx, f *forum.Forum, a forum.Action, message string) error {
	res, err := fc.lyc.Router().Dispatch(c.UserContext(), f, a)
	if err != nil {
		var genErr *core.GenerationError
		if !errors.As(err, &genErr) {
			return err
		}
		return withData(err, FailureDetails{
			Persona:   genErr.Persona,
			ChairText: genErr.ChairText,
			Turns:     fc.view(res.Turns),
		})
	}
	return c.JSON(SuccessResponse(message, ActionResponse{Turns: fc.view(res.Turns)}))
}

func indexParam(c *fiber.Ctx) (int, error) {
	i, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", core.ErrIndexOutOfRange, c.Params("index"))
	}
	return i, nil
}

func (fc *forumController) Create(c *fiber.Ctx) error {
	var req CreateForumRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	var optFns []func(o *forum.Options)
	if req.Mode != "" {
		mode, err := core.ParseMode(req.Mode)
		if err != nil {
			return err
		}
		optFns = append(optFns, func(o *forum.Options) { o.Mode = mode })
	}

	f := fc.lyc.Forums().Create(optFns...)

	return c.Status(fiber.StatusCreated).JSON(SuccessResponse("Success create forum", f.Summarize()))
}

func (fc *forumController) List(c *fiber.Ctx) error {
	return c.JSON(SuccessResponse("Success list forums", fc.lyc.Forums().List()))
}

func (fc *forumController) Show(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}
	return c.JSON(SuccessResponse("Success show forum", f.Summarize()))
}

func (fc *forumController) Delete(c *fiber.Ctx) error {
	if err := fc.lyc.Forums().Delete(c.Params("id")); err != nil {
		return err
	}
	return c.JSON(SuccessResponse("Success delete forum", nil))
}

func (fc *forumController) Turns(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}

	turns := f.Turns()
	if c.Query("order") == "display" {
		turns = f.DisplayTurns()
	}

	return c.JSON(SuccessResponse("Success list turns", fc.view(turns)))
}

func (fc *forumController) References(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}
	return c.JSON(SuccessResponse("Success list references", transcript.SpecialistOptions(f.Turns(), fc.lyc.Registry())))
}

func (fc *forumController) Address(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}

	var req AddressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := ValidateRequest(req); err != nil {
		return err
	}

	target, err := fc.lyc.Registry().Lookup(req.Target)
	if err != nil {
		return err
	}

	return fc.dispatch(c, f, forum.DirectAddress{
		Target:    target,
		Text:      req.Text,
		Document:  req.Document,
		PriorTurn: req.PriorTurn,
	}, "Success address persona")
}

func (fc *forumController) Poll(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}

	var req PollRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := ValidateRequest(req); err != nil {
		return err
	}

	return fc.dispatch(c, f, forum.PollAll{Text: req.Text, Document: req.Document}, "Success poll all personas")
}

func (fc *forumController) Flag(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}

	var req FlagRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := ValidateRequest(req); err != nil {
		return err
	}

	item, err := fc.lyc.Router().Flag(f, *req.TurnIndex, req.Passage)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(SuccessResponse("Success flag passage", item))
}

func (fc *forumController) Flags(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}

	res := FlagsResponse{Items: f.Flags()}
	if p, ok := f.Pending(); ok {
		res.Pending = &p
	}

	return c.JSON(SuccessResponse("Success list flags", res))
}

func (fc *forumController) RemoveFlag(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}
	i, err := indexParam(c)
	if err != nil {
		return err
	}
	item, err := f.RemoveFlag(i)
	if err != nil {
		return err
	}
	return c.JSON(SuccessResponse("Success remove flag", item))
}

func (fc *forumController) SelectFlag(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}
	i, err := indexParam(c)
	if err != nil {
		return err
	}
	item, err := f.SelectFlag(i)
	if err != nil {
		return err
	}
	return c.JSON(SuccessResponse("Success select flag", item))
}

func (fc *forumController) CancelPending(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}
	item, err := f.CancelPending()
	if err != nil {
		return err
	}
	return c.JSON(SuccessResponse("Success cancel pending drill-down", item))
}

func (fc *forumController) DrillDown(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}

	var req DrillDownRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := ValidateRequest(req); err != nil {
		return err
	}

	act := forum.DrillDown{ItemID: req.ItemID, Instruction: req.Instruction}
	if req.Target != "" {
		if act.Target, err = fc.lyc.Registry().Lookup(req.Target); err != nil {
			return err
		}
	}

	return fc.dispatch(c, f, act, "Success fire drill-down")
}

func (fc *forumController) Paper(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}
	return fc.dispatch(c, f, forum.PaperDraft{}, "Success draft paper")
}

func (fc *forumController) Clear(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}
	f.Clear()
	return c.JSON(SuccessResponse("Success clear forum", f.Summarize()))
}

func (fc *forumController) SetMode(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}

	var req ModeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := ValidateRequest(req); err != nil {
		return err
	}

	mode, err := core.ParseMode(req.Mode)
	if err != nil {
		return err
	}
	if err := f.SetMode(mode); err != nil {
		return err
	}

	return c.JSON(SuccessResponse("Success set mode", f.Summarize()))
}

func (fc *forumController) Export(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}

	format, err := transcript.ParseFormat(c.Query("format"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	data, err := f.Export(format, fc.lyc.Registry())
	if err != nil {
		return err
	}

	c.Attachment(transcript.Filename(time.Now(), format))
	c.Set(fiber.HeaderContentType, format.ContentType())

	return c.Send(data)
}

func (fc *forumController) UploadDocument(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field \"file\" is required")
	}

	file, err := fh.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	doc, err := fc.lyc.Extractor().Extract(fh.Filename, data)
	if err != nil {
		f.ClearDocument()
		fc.logger.Warn("Document ignored", "forum_id", f.ID, "name", fh.Filename, "error", err.Error())
		return withData(err, doc)
	}

	staged := f.StageDocument(doc.Name, doc.Text)

	return c.Status(fiber.StatusCreated).JSON(SuccessResponse("Success stage document", staged))
}

func (fc *forumController) ClearDocument(c *fiber.Ctx) error {
	f, err := fc.forum(c)
	if err != nil {
		return err
	}
	f.ClearDocument()
	return c.JSON(SuccessResponse("Success clear document", nil))
}
