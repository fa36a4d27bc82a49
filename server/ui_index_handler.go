package server

import (
	"net/http"
	"strings"

	"github.com/bafcc/camp-admin/applications"
	"github.com/bafcc/camp-admin/internal/errors"
	"github.com/bafcc/camp-admin/internal/restclient"
	"github.com/rs/zerolog/log"
)

type indexPageData struct {
	Form               applications.Form
	Error              string
	RegistrationNumber string
}

// IndexHandler renders the public registration form
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, s.pages.index, "Register", indexPageData{Form: applications.Form{Gender: "Male"}})
	}
}

// RegisterHandler submits the registration form to the backend
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest, "Invalid form submission")
			return
		}
		form := registrationForm(r)
		if form.Name == "" || form.MobileNumber == "" {
			s.render(w, http.StatusBadRequest, s.pages.index, "Register", indexPageData{
				Form:  form,
				Error: "Name and mobile number are required",
			})
			return
		}

		app, err := s.applications.Create(r.Context(), form)
		if err != nil {
			log.Err(err).Msg("Failed to submit registration")
			status, msg := http.StatusBadGateway, "Registration is unavailable right now. Please try again later."
			var se *restclient.StatusError
			if errors.Is(err, errors.ErrBadRequest) && errors.As(err, &se) {
				status, msg = http.StatusBadRequest, se.Detail
			}
			s.render(w, status, s.pages.index, "Register", indexPageData{Form: form, Error: msg})
			return
		}

		log.Info().Str("registration_number", app.RegistrationNumber).Msg("Registration received")
		s.render(w, http.StatusCreated, s.pages.index, "Register", indexPageData{
			Form:               applications.Form{Gender: "Male"},
			RegistrationNumber: app.RegistrationNumber,
		})
	}
}

func registrationForm(r *http.Request) applications.Form {
	v := func(key string) string {
		return strings.TrimSpace(r.PostFormValue(key))
	}
	address := func(prefix string) applications.Address {
		return applications.Address{
			Village:       v(prefix + ".village"),
			PostOffice:    v(prefix + ".post_office"),
			PoliceStation: v(prefix + ".police_station"),
			District:      v(prefix + ".district"),
			PIN:           v(prefix + ".pin"),
		}
	}
	return applications.Form{
		Name:                  v("name"),
		FatherName:            v("father_name"),
		MotherName:            v("mother_name"),
		GuardianName:          v("guardian_name"),
		DOB:                   v("dob"),
		Age:                   v("age"),
		Gender:                v("gender"),
		Height:                v("height"),
		Weight:                v("weight"),
		AadharNumber:          v("aadhar_number"),
		Category:              v("category"),
		MobileNumber:          v("mobile_number"),
		AlternateMobileNumber: v("alternate_mobile_number"),
		Address:               address("address"),
		CurrentAddress:        address("current_address"),
		SchoolName:            v("school_name"),
		CurrentClass:          v("current_class"),
		PlayingPosition:       v("playing_position"),
		MedicalIssues:         v("medical_issues"),
	}
}
