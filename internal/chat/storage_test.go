package chat

import (
	"path/filepath"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	ginkgo.BeforeEach(func() {
		tmpDir = ginkgo.GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	ginkgo.Describe("Save", func() {
		var (
			filename string
			name     string
			err      error
		)

		ginkgo.JustBeforeEach(func() {
			name, err = storage.Save(filename, []byte("jfif bytes"))
		})

		ginkgo.When("the name is plain", func() {
			ginkgo.BeforeEach(func() {
				filename = "abc_receipt.jfif"
			})

			ginkgo.It("writes the file under the base directory", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(name).To(Equal(filename))
				Expect(filepath.Join(tmpDir, filename)).To(BeAnExistingFile())
			})
		})

		ginkgo.When("the name has a subdirectory", func() {
			ginkgo.BeforeEach(func() {
				filename = "uploads/abc.png"
			})

			ginkgo.It("creates the subdirectory", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(filepath.Join(tmpDir, "uploads", "abc.png")).To(BeAnExistingFile())
			})
		})

		ginkgo.When("the name tries to escape the base directory", func() {
			ginkgo.BeforeEach(func() {
				filename = "../../escape.png"
			})

			ginkgo.It("keeps the file inside the base directory", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(filepath.Join(tmpDir, "escape.png")).To(BeAnExistingFile())
			})
		})
	})

	ginkgo.Describe("Get", func() {
		var (
			filename string
			data     []byte
			err      error
		)

		ginkgo.JustBeforeEach(func() {
			data, err = storage.Get(filename)
		})

		ginkgo.When("the file exists", func() {
			ginkgo.BeforeEach(func() {
				filename = "receipt_1.jpg"
				_, saveErr := storage.Save(filename, []byte("image"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			ginkgo.It("returns its contents", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("image"))
			})
		})

		ginkgo.When("the file does not exist", func() {
			ginkgo.BeforeEach(func() {
				filename = "missing.jpg"
			})

			ginkgo.It("returns the error", func() {
				Expect(err).To(MatchError(ContainSubstring("reading file")))
			})
		})
	})

	ginkgo.Describe("Delete", func() {
		var (
			filename string
			err      error
		)

		ginkgo.JustBeforeEach(func() {
			err = storage.Delete(filename)
		})

		ginkgo.When("the file exists", func() {
			ginkgo.BeforeEach(func() {
				filename = "receipt_2.png"
				_, saveErr := storage.Save(filename, []byte("image"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			ginkgo.It("removes it", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(filepath.Join(tmpDir, filename)).NotTo(BeAnExistingFile())
			})
		})

		ginkgo.When("the file does not exist", func() {
			ginkgo.BeforeEach(func() {
				filename = "missing.png"
			})

			ginkgo.It("returns the error", func() {
				Expect(err).To(MatchError(ContainSubstring("deleting file")))
			})
		})
	})

	ginkgo.Describe("NewLocalStorage", func() {
		ginkgo.It("creates a missing directory", func() {
			path := filepath.Join(ginkgo.GinkgoT().TempDir(), "uploads")
			_, err := NewLocalStorage(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(BeADirectory())
		})
	})
})
