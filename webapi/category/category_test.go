package category_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/nNEWBE/expense-tracker-sub000/webapi/category"
	"github.com/nNEWBE/expense-tracker-sub000/webapi/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CategoryTestSuite struct {
	testutils.WebTestSuite
}

func (s *CategoryTestSuite) TestListByKind() {
	var list []string
	resp := s.MakeRequest(fiber.MethodGet, "/categories?kind=income", "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.DecodeData(resp, &list)
	s.Contains(list, "Salary")
	s.NotContains(list, "Food")
}

func (s *CategoryTestSuite) TestListAll() {
	var all map[string][]string
	resp := s.MakeRequest(fiber.MethodGet, "/categories", "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.DecodeData(resp, &all)
	s.Contains(all["EXPENSE"], "Food")
	s.Contains(all["INCOME"], "Salary")
}

func (s *CategoryTestSuite) TestListUnknownKind() {
	resp := s.MakeRequest(fiber.MethodGet, "/categories?kind=loan", "")
	s.Equal(fiber.StatusBadRequest, s.DecodeProblem(resp).Status)
}

func (s *CategoryTestSuite) TestDetect() {
	testCases := []struct {
		note     string
		category string
		amount   string
	}{
		{note: "Uber to office 320", category: "Transport", amount: "320"},
		{note: "coffee", category: "Food", amount: "0"},
		{note: "birthday thing 1,500.75", category: "Other", amount: "1500.75"},
	}
	for _, tc := range testCases {
		s.Run(tc.note, func() {
			var got category.DetectResponse
			resp := s.MakeRequest(fiber.MethodPost, "/categories/detect", `{"note":"`+tc.note+`"}`)
			s.Require().Equal(fiber.StatusOK, resp.StatusCode)
			s.DecodeData(resp, &got)
			s.Equal(tc.category, got.Category)
			s.True(decimal.RequireFromString(tc.amount).Equal(got.Amount))
		})
	}
}

func (s *CategoryTestSuite) TestDetectRequiresNote() {
	resp := s.MakeRequest(fiber.MethodPost, "/categories/detect", `{}`)
	s.Equal(fiber.StatusBadRequest, s.DecodeProblem(resp).Status)
}

func TestCategoryTestSuite(t *testing.T) {
	suite.Run(t, new(CategoryTestSuite))
}
