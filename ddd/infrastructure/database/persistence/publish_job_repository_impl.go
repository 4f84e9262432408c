package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/repo"
	"highlight-service/ddd/domain/vo"
	"highlight-service/ddd/infrastructure/database/convertor"
	"highlight-service/ddd/infrastructure/database/dao"
)

type publishJobRepositoryImpl struct {
	jobDao    *dao.PublishJobDAO
	convertor *convertor.PublishJobConvertor
}

func NewPublishJobRepository() repo.PublishJobRepository {
	return &publishJobRepositoryImpl{
		jobDao:    dao.NewPublishJobDAO(),
		convertor: convertor.NewPublishJobConvertor(),
	}
}

func (r *publishJobRepositoryImpl) CreateJob(ctx context.Context, job *entity.PublishJobEntity) error {
	jobPo := r.convertor.ToPO(job)
	if err := r.jobDao.Create(ctx, jobPo); err != nil {
		return err
	}
	job.SetID(jobPo.ID)
	return nil
}

func (r *publishJobRepositoryImpl) GetJobByUUID(ctx context.Context, jobUUID string) (*entity.PublishJobEntity, error) {
	jobPo, err := r.jobDao.FindByJobUUID(ctx, jobUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.convertor.ToEntity(jobPo), nil
}

func (r *publishJobRepositoryImpl) GetJobsByTask(ctx context.Context, taskUUID string) ([]*entity.PublishJobEntity, error) {
	pos, err := r.jobDao.FindByTaskUUID(ctx, taskUUID)
	if err != nil {
		return nil, err
	}
	jobs := make([]*entity.PublishJobEntity, 0, len(pos))
	for _, p := range pos {
		jobs = append(jobs, r.convertor.ToEntity(p))
	}
	return jobs, nil
}

func (r *publishJobRepositoryImpl) UpdateJob(ctx context.Context, job *entity.PublishJobEntity) error {
	return r.jobDao.Update(ctx, r.convertor.ToPO(job))
}

func (r *publishJobRepositoryImpl) QueryDueJobs(ctx context.Context, platform string, now time.Time, limit int) ([]*entity.PublishJobEntity, error) {
	pos, err := r.jobDao.QueryDue(ctx, platform, now, limit)
	if err != nil {
		return nil, err
	}
	jobs := make([]*entity.PublishJobEntity, 0, len(pos))
	for _, p := range pos {
		jobs = append(jobs, r.convertor.ToEntity(p))
	}
	return jobs, nil
}

func (r *publishJobRepositoryImpl) QueryJobsByStatus(ctx context.Context, status vo.PublishStatus, limit int) ([]*entity.PublishJobEntity, error) {
	pos, err := r.jobDao.FindByStatus(ctx, status.String(), limit)
	if err != nil {
		return nil, err
	}
	jobs := make([]*entity.PublishJobEntity, 0, len(pos))
	for _, p := range pos {
		jobs = append(jobs, r.convertor.ToEntity(p))
	}
	return jobs, nil
}

func (r *publishJobRepositoryImpl) CompareAndSetStatus(ctx context.Context, jobUUID string, from, to vo.PublishStatus) (bool, error) {
	return r.jobDao.CompareAndSwapStatus(ctx, jobUUID, from.String(), to.String())
}

func (r *publishJobRepositoryImpl) CountPendingByTask(ctx context.Context, taskUUID string) (int64, error) {
	return r.jobDao.CountPendingByTask(ctx, taskUUID)
}

func (r *publishJobRepositoryImpl) CountJobsByStatus(ctx context.Context, status vo.PublishStatus) (int64, error) {
	return r.jobDao.CountByStatus(ctx, status.String())
}
