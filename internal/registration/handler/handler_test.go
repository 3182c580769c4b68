package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ekaa/internal/export"
	"ekaa/internal/registration/handler/mocks"
	"ekaa/internal/registration/models"
	dErrors "ekaa/pkg/domain-errors"
	"ekaa/pkg/testutil"
)

type RegistrationHandlerSuite struct {
	suite.Suite
	mockService *mocks.MockService
	router      chi.Router
}

func TestRegistrationHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistrationHandlerSuite))
}

func (s *RegistrationHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.mockService = mocks.NewMockService(ctrl)

	h := New(s.mockService, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func strPtr(v string) *string { return &v }

func (s *RegistrationHandlerSuite) TestRoot() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/"))

	s.Equal(http.StatusFound, rr.Code)
	s.Equal("/registration", rr.Header().Get("Location"))
}

func (s *RegistrationHandlerSuite) TestForm() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/registration"))

	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Header().Get("Content-Type"), "text/html")
	s.Contains(rr.Body.String(), "<form")
}

func (s *RegistrationHandlerSuite) TestSubmit() {
	s.Run("success returns confirmation message", func() {
		s.mockService.EXPECT().Submit(gomock.Any(), &models.SubmitRequest{
			Name:              strPtr("Jane Doe"),
			Email:             strPtr("jane@x.com"),
			Phone:             strPtr("555-1234"),
			ConnectedWith:     strPtr("LinkedIn"),
			SelectedTrainings: []string{"Yoga", "Meditation"},
		}).Return(&models.Registration{ID: 1}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/registration", map[string]any{
			"name":              "Jane Doe",
			"email":             "jane@x.com",
			"phone":             "555-1234",
			"connectedWith":     "LinkedIn",
			"selectedTrainings": []string{"Yoga", "Meditation"},
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "message", models.MessageSubmitted)
	})

	s.Run("validation failure returns 400 with message", func() {
		s.mockService.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, models.MessageRequiredFields))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/registration", map[string]any{
			"name":  "",
			"email": "a@b.c",
			"phone": "1",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		testutil.AssertJSONContains(s.T(), rr, "message", models.MessageRequiredFields)
	})

	s.Run("malformed body is a validation failure", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/registration", `{"name":`)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		testutil.AssertJSONContains(s.T(), rr, "message", models.MessageRequiredFields)
	})

	s.Run("store failure returns internal error envelope", func() {
		s.mockService.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("db down"), dErrors.CodeInternal, "failed to save registration"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/registration", map[string]any{
			"name": "A", "email": "B", "phone": "C",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}

func (s *RegistrationHandlerSuite) TestList() {
	s.Run("returns registrations with count", func() {
		s.mockService.EXPECT().List(gomock.Any()).Return([]*models.Registration{
			{ID: 1, Name: "Jane Doe", Email: "jane@x.com", Phone: "555-1234", SelectedTrainings: "Yoga"},
			{ID: 2, Name: "John Roe", Email: "john@x.com", Phone: "555-9876"},
		}, nil)

		req := testutil.WithPrincipal(testutil.NewRequest(s.T(), http.MethodGet, "/admin/registrations"), "admin")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[models.ListResponse](s.T(), rr)
		s.Equal(2, resp.Count)
		s.Require().Len(resp.Registrations, 2)
		s.Equal("Jane Doe", resp.Registrations[0].Name)
		s.Equal("John Roe", resp.Registrations[1].Name)
	})

	s.Run("empty store renders an empty list", func() {
		s.mockService.EXPECT().List(gomock.Any()).Return(nil, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/registrations"))

		testutil.AssertStatusOK(s.T(), rr)
		s.JSONEq(`{"registrations":[],"count":0}`, rr.Body.String())
	})

	s.Run("store failure returns 500", func() {
		s.mockService.EXPECT().List(gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInternal, "failed to load registrations"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/registrations"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}

func (s *RegistrationHandlerSuite) TestExport() {
	s.Run("streams the document as an attachment", func() {
		doc := bytes.NewBufferString("PK-fake-xlsx")
		s.mockService.EXPECT().Export(gomock.Any()).Return(doc, 1, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/export-excel"))

		testutil.AssertStatusOK(s.T(), rr)
		s.Equal(export.ContentType, rr.Header().Get("Content-Type"))
		s.Equal("attachment; filename=Ekaa_Registrations.xlsx", rr.Header().Get("Content-Disposition"))
		s.Equal("PK-fake-xlsx", rr.Body.String())
	})

	s.Run("failure sends no attachment", func() {
		s.mockService.EXPECT().Export(gomock.Any()).
			Return(nil, 0, dErrors.New(dErrors.CodeInternal, "failed to load registrations"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/export-excel"))

		s.Equal(http.StatusInternalServerError, rr.Code)
		s.Empty(rr.Header().Get("Content-Disposition"))
	})
}
