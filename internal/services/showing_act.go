package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"realty-system/internal/entities"
	"realty-system/pkg/pdf"

	"go.uber.org/zap"
)

// ShowingAct - подборка с клиентом и объектами, всё что нужно для акта показа.
type ShowingAct struct {
	Selection entities.Selection `json:"selection"`
	Client    entities.Client    `json:"client"`
	Listings  []entities.Listing `json:"listings"`
}

// ActRenderer - отрисовка акта (PDF).
type ActRenderer interface {
	Render(doc pdf.ActDocument) ([]byte, error)
}

type ShowingActServiceInterface interface {
	RenderAct(ctx context.Context, selectionID uint64) ([]byte, error)
}

type ShowingActService struct {
	selections SelectionServiceInterface
	renderer   ActRenderer
	logger     *zap.Logger
}

func NewShowingActService(selections SelectionServiceInterface, renderer ActRenderer, logger *zap.Logger) ShowingActServiceInterface {
	return &ShowingActService{selections: selections, renderer: renderer, logger: logger}
}

func (s *ShowingActService) RenderAct(ctx context.Context, selectionID uint64) ([]byte, error) {
	act, err := s.selections.FindSelection(ctx, selectionID)
	if err != nil {
		return nil, err
	}
	out, err := s.renderer.Render(BuildActDocument(act))
	if err != nil {
		s.logger.Error("RenderAct: ошибка формирования PDF", zap.Uint64("selectionID", selectionID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

var kindTitles = map[entities.ListingKind]string{
	entities.KindApartment: "Квартира",
	entities.KindCommerce:  "Коммерция",
	entities.KindHouse:     "Дом",
	entities.KindLand:      "Участок",
}

// DescribeListing - краткое описание объекта для акта.
func DescribeListing(l *entities.Listing) string {
	parts := []string{kindTitles[l.Kind]}

	address := l.LocalityName
	if l.StreetName != "" {
		address += ", " + l.StreetName
	}
	if l.HouseNumber != "" {
		address += " " + l.HouseNumber
	}
	parts = append(parts, address)

	switch l.Kind {
	case entities.KindApartment:
		if a := l.Apartment; a != nil {
			parts = append(parts, fmt.Sprintf("%d-комн.", a.Rooms), fmt.Sprintf("эт. %d/%d", a.Floor, a.StoreysNumber))
		}
	case entities.KindCommerce:
		if c := l.Commerce; c != nil {
			parts = append(parts, fmt.Sprintf("эт. %d/%d", c.Floor, c.StoreysNumber))
			if c.Purpose != "" {
				parts = append(parts, c.Purpose)
			}
		}
	case entities.KindHouse:
		if h := l.House; h != nil {
			parts = append(parts, fmt.Sprintf("%d-комн.", h.Rooms), fmt.Sprintf("%d эт.", h.StoreysNumber))
			if h.LandArea != nil {
				parts = append(parts, fmt.Sprintf("участок %s", strconv.FormatFloat(*h.LandArea, 'f', -1, 64)))
			}
		}
	case entities.KindLand:
		if ld := l.Land; ld != nil && ld.Purpose != "" {
			parts = append(parts, ld.Purpose)
		}
	}

	parts = append(parts, strconv.FormatFloat(l.Area, 'f', -1, 64)+" м²")
	return strings.Join(parts, ", ")
}

func BuildActDocument(act *ShowingAct) pdf.ActDocument {
	doc := pdf.ActDocument{
		Title: fmt.Sprintf("Акт показа № %d от %s", act.Selection.ID, act.Selection.CreatedAt.Format("02.01.2006")),
		Header: []string{
			"Клиент: " + act.Client.Fio + ", " + act.Client.PhoneNumber,
			"Риэлтор: " + act.Selection.UserFio,
		},
		Columns: []string{"№", "Объект", "Цена"},
		Widths:  []float64{10, 135, 35},
		Footer: []string{
			"Клиент ознакомлен с объектами, перечисленными выше.",
			"Подпись клиента: ____________________",
			"Подпись риэлтора: ____________________",
		},
	}
	for i := range act.Listings {
		l := &act.Listings[i]
		doc.Rows = append(doc.Rows, []string{
			strconv.Itoa(i + 1),
			DescribeListing(l),
			strconv.FormatInt(l.Price, 10),
		})
	}
	return doc
}
