package app

import (
	"context"
	"fmt"
	"time"

	"ibanking/backend/services/payment-service/internal/models"
	"ibanking/backend/services/payment-service/internal/password"
	"ibanking/backend/services/payment-service/internal/repository"
	"ibanking/backend/services/payment-service/internal/service"
)

// SeedDemoData populates demo customers and tuition records for dev mode.
// Every customer can log in with password "pass123"; the matching tuition
// record sits in the current semester so lookups succeed out of the box.
func SeedDemoData(ctx context.Context, customers repository.CustomerRepository, tuitions repository.TuitionRepository, hasher password.Hasher) error {
	hash, err := hasher.Hash("pass123")
	if err != nil {
		return err
	}

	semester := service.SemesterAt(time.Now())
	names := []string{"Nguyễn Văn An", "Trần Thị Bình", "Lê Minh Châu", "Phạm Quốc Dũng", "Hoàng Ngọc Hà"}

	for i, name := range names {
		username := fmt.Sprintf("523H%04d", 111+i)
		if _, err := customers.GetByUsername(ctx, username); err == nil {
			continue
		}
		_, err := customers.Create(ctx, &models.Customer{
			Username:     username,
			PasswordHash: hash,
			FullName:     name,
			Phone:        fmt.Sprintf("090%08d", 111+i),
			Email:        fmt.Sprintf("%s@student.tdtu.edu.vn", username),
			Balance:      15000000,
		})
		if err != nil {
			return err
		}
		_, err = tuitions.Create(ctx, &models.StudentTuition{
			StudentID:   username,
			StudentName: name,
			Semester:    semester,
			Amount:      12500000,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
