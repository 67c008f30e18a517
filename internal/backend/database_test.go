package backend

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/billed/internal/bill"
)

var _ = Describe("BoltDB", func() {
	var (
		db *BoltDB
	)

	BeforeEach(func() {
		var err error
		db, err = NewBoltDB(filepath.Join(GinkgoT().TempDir(), "test.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newRecord := func(id string, created time.Time) *Record {
		return &Record{
			Bill: bill.Bill{
				ID:     id,
				Name:   "Bill " + id,
				Date:   "2004-04-04",
				Amount: 400,
				Status: "pending",
				Email:  "a@a",
			},
			FilePath:    id + "_receipt.jpg",
			ContentType: "image/jpeg",
			CreatedAt:   created,
			UpdatedAt:   created,
		}
	}

	Describe("SaveRecord", func() {
		var (
			record *Record
			err    error
		)

		BeforeEach(func() {
			record = newRecord("test-id", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
		})

		JustBeforeEach(func() {
			err = db.SaveRecord(record)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should save every field", func() {
			saved, getErr := db.GetRecord("test-id")
			Expect(getErr).NotTo(HaveOccurred())
			Expect(saved.Bill).To(Equal(record.Bill))
			Expect(saved.FilePath).To(Equal("test-id_receipt.jpg"))
			Expect(saved.CreatedAt.Equal(record.CreatedAt)).To(BeTrue())
		})

		When("the record already exists", func() {
			BeforeEach(func() {
				Expect(db.SaveRecord(newRecord("test-id", time.Now()))).To(Succeed())
				record.Name = "renamed"
			})

			It("should replace it", func() {
				saved, getErr := db.GetRecord("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Name).To(Equal("renamed"))
			})
		})
	})

	Describe("GetRecord", func() {
		When("the record does not exist", func() {
			It("returns ErrNotFound", func() {
				_, err := db.GetRecord("missing")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("ListRecords", func() {
		var (
			records []*Record
			err     error
		)

		JustBeforeEach(func() {
			records, err = db.ListRecords()
		})

		When("the database is empty", func() {
			It("should return an empty list", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(records).NotTo(BeNil())
				Expect(records).To(BeEmpty())
			})
		})

		When("records exist", func() {
			BeforeEach(func() {
				base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
				Expect(db.SaveRecord(newRecord("zzz", base))).To(Succeed())
				Expect(db.SaveRecord(newRecord("aaa", base.Add(time.Hour)))).To(Succeed())
			})

			It("should order them by creation time", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(2))
				Expect(records[0].ID).To(Equal("zzz"))
				Expect(records[1].ID).To(Equal("aaa"))
			})
		})
	})

	Describe("DeleteRecord", func() {
		When("the record exists", func() {
			BeforeEach(func() {
				Expect(db.SaveRecord(newRecord("test-id", time.Now()))).To(Succeed())
			})

			It("should remove it", func() {
				Expect(db.DeleteRecord("test-id")).To(Succeed())
				_, err := db.GetRecord("test-id")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})

		When("the record does not exist", func() {
			It("returns ErrNotFound", func() {
				Expect(db.DeleteRecord("missing")).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("NewBoltDB", func() {
		When("the path is not writable", func() {
			It("returns the error", func() {
				_, err := NewBoltDB(filepath.Join(GinkgoT().TempDir(), "missing", "dir", "test.db"))
				Expect(err).To(MatchError(ContainSubstring("opening boltdb")))
			})
		})
	})
})
