package backend

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/billed/internal/bill"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		service     *Service
		server      *Server
		ghttpServer *ghttp.Server
	)

	setupServer := func(handler http.HandlerFunc) {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(handler)
	}

	uploadBody := func(filename, email string, data []byte) (*bytes.Buffer, string) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.WriteField("email", email)).To(Succeed())
		Expect(writer.Close()).To(Succeed())
		return body, writer.FormDataContentType()
	}

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		idGen := &mockIDGenerator{ids: []string{"new-id"}}
		timeSrc := &mockTimeSource{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
		service = NewServiceWithDeps(db, storage, nil, "http://bills.test", idGen, timeSrc)
		server = NewServerWithMux(service, http.NewServeMux())
		setupServer(server.ServeHTTP)
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleListBills", func() {
		When("bills exist", func() {
			BeforeEach(func() {
				db.records["1"] = &Record{Bill: bill.Bill{ID: "1", Email: "a@a"}, CreatedAt: time.Unix(1, 0)}
				db.records["2"] = &Record{Bill: bill.Bill{ID: "2", Email: "b@b"}, CreatedAt: time.Unix(2, 0)}
			})

			It("should return all bills as JSON", func() {
				resp, err := http.Get(ghttpServer.URL() + "/bills")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

				var bills []bill.Bill
				Expect(json.NewDecoder(resp.Body).Decode(&bills)).To(Succeed())
				Expect(bills).To(HaveLen(2))
			})

			It("should filter by email", func() {
				resp, err := http.Get(ghttpServer.URL() + "/bills?email=b@b")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				var bills []bill.Bill
				Expect(json.NewDecoder(resp.Body).Decode(&bills)).To(Succeed())
				Expect(bills).To(HaveLen(1))
				Expect(bills[0].ID).To(Equal("2"))
			})
		})

		When("no bills exist", func() {
			It("should return an empty array", func() {
				resp, err := http.Get(ghttpServer.URL() + "/bills")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(strings.TrimSpace(string(body))).To(Equal("[]"))
			})
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.listErr = io.ErrUnexpectedEOF
			})

			It("should return status Internal Server Error", func() {
				resp, err := http.Get(ghttpServer.URL() + "/bills")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			})
		})
	})

	Describe("handleCreateBill", func() {
		When("a receipt is uploaded", func() {
			It("should store it and return its reference", func() {
				body, contentType := uploadBody("ticket.png", "a@a", []byte("png data"))
				resp, err := http.Post(ghttpServer.URL()+"/bills", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var result bill.CreateResult
				Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
				Expect(result.Key).To(Equal("new-id"))
				Expect(result.FileURL).To(Equal("http://bills.test/bills/new-id/file"))
				Expect(result.Suggestion).To(BeNil())

				Expect(db.records).To(HaveKey("new-id"))
				Expect(db.records["new-id"].Email).To(Equal("a@a"))
				Expect(storage.files).To(HaveKeyWithValue("new-id_ticket.png", []byte("png data")))
			})
		})

		When("the receipt is not an image", func() {
			It("should return status Bad Request", func() {
				body, contentType := uploadBody("notes.txt", "a@a", []byte("text"))
				resp, err := http.Post(ghttpServer.URL()+"/bills", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(db.records).To(BeEmpty())
			})
		})

		When("the multipart form has no file", func() {
			It("should return status Bad Request", func() {
				body := &bytes.Buffer{}
				writer := multipart.NewWriter(body)
				Expect(writer.WriteField("email", "a@a")).To(Succeed())
				Expect(writer.Close()).To(Succeed())

				resp, err := http.Post(ghttpServer.URL()+"/bills", writer.FormDataContentType(), body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("a JSON bill is posted", func() {
			It("should create it", func() {
				payload := `{"type":"Transports","name":"Taxi","amount":30,"date":"2024-01-10","email":"a@a"}`
				resp, err := http.Post(ghttpServer.URL()+"/bills", "application/json", strings.NewReader(payload))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var created bill.Bill
				Expect(json.NewDecoder(resp.Body).Decode(&created)).To(Succeed())
				Expect(created.ID).To(Equal("new-id"))
				Expect(created.Status).To(Equal("pending"))
			})
		})

		When("the JSON body is invalid", func() {
			It("should return status Bad Request", func() {
				resp, err := http.Post(ghttpServer.URL()+"/bills", "application/json", strings.NewReader("{"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleUpdateBill", func() {
		patch := func(id, payload string) *http.Response {
			req, err := http.NewRequest(http.MethodPatch, ghttpServer.URL()+"/bills/"+id, strings.NewReader(payload))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		BeforeEach(func() {
			db.records["draft"] = &Record{
				Bill:     bill.Bill{ID: "draft", Email: "a@a", FileName: "ticket.png", FileURL: "http://bills.test/bills/draft/file", Status: "pending"},
				FilePath: "draft_ticket.png",
			}
		})

		When("the bill exists", func() {
			It("should merge the fields", func() {
				resp := patch("draft", `{"type":"Restaurants et bars","name":"Déjeuner","amount":42.5,"date":"2024-01-14","pct":20}`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var updated bill.Bill
				Expect(json.NewDecoder(resp.Body).Decode(&updated)).To(Succeed())
				Expect(updated.Name).To(Equal("Déjeuner"))
				Expect(updated.FileName).To(Equal("ticket.png"))
				Expect(db.records["draft"].Amount).To(Equal(42.5))
			})
		})

		When("the bill does not exist", func() {
			It("should return status Not Found", func() {
				resp := patch("missing", `{"name":"x"}`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})

		When("the status is unknown", func() {
			It("should return status Bad Request", func() {
				resp := patch("draft", `{"status":"paid"}`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleGetBill", func() {
		BeforeEach(func() {
			db.records["1"] = &Record{Bill: bill.Bill{ID: "1", Name: "Hôtel"}}
		})

		It("should return the bill", func() {
			resp, err := http.Get(ghttpServer.URL() + "/bills/1")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var b bill.Bill
			Expect(json.NewDecoder(resp.Body).Decode(&b)).To(Succeed())
			Expect(b.Name).To(Equal("Hôtel"))
		})

		It("should return status Not Found for an unknown bill", func() {
			resp, err := http.Get(ghttpServer.URL() + "/bills/2")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("handleGetBillFile", func() {
		BeforeEach(func() {
			db.records["1"] = &Record{Bill: bill.Bill{ID: "1"}, FilePath: "1_ticket.jpg", ContentType: "image/jpeg"}
			storage.files["1_ticket.jpg"] = []byte("jpeg data")
		})

		It("should return the receipt", func() {
			resp, err := http.Get(ghttpServer.URL() + "/bills/1/file")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/jpeg"))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(Equal([]byte("jpeg data")))
		})

		It("should return status Not Found for an unknown bill", func() {
			resp, err := http.Get(ghttpServer.URL() + "/bills/2/file")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("handleDeleteBill", func() {
		BeforeEach(func() {
			db.records["1"] = &Record{Bill: bill.Bill{ID: "1"}}
		})

		It("should delete the bill", func() {
			req, err := http.NewRequest(http.MethodDelete, ghttpServer.URL()+"/bills/1", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.records).To(BeEmpty())
		})

		It("should return status Not Found for an unknown bill", func() {
			req, err := http.NewRequest(http.MethodDelete, ghttpServer.URL()+"/bills/2", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Handler", func() {
		BeforeEach(func() {
			setupServer(server.Handler().ServeHTTP)
		})

		It("should answer preflight requests", func() {
			req, err := http.NewRequest(http.MethodOptions, ghttpServer.URL()+"/bills", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("PATCH"))
		})

		It("should add CORS headers to API responses", func() {
			resp, err := http.Get(ghttpServer.URL() + "/bills")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})
})
